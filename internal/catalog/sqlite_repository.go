package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/Snapman5678/ChainWave/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite allows a single writer; one connection also keeps :memory:
	// databases on the same connection as their migrations
	db.SetMaxOpenConns(1)

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const productColumns = `id, seller_id, name, description, price, category, quantity, image_url, business_name, contact_email, contact_phone`

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY rowid`, productColumns)
	return r.queryProducts(ctx, query)
}

func (r *Repository) SearchProducts(ctx context.Context, q string) ([]*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE name LIKE '%%' || $1 || '%%' OR description LIKE '%%' || $1 || '%%'
		ORDER BY rowid
	`, productColumns)
	return r.queryProducts(ctx, query, q)
}

func (r *Repository) ListProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE category = $1 ORDER BY rowid`, productColumns)
	return r.queryProducts(ctx, query, category)
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := fmt.Sprintf(`
		INSERT INTO products (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, productColumns)

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.SellerID,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.AvailableStock,
		p.ImageURL,
		p.BusinessName,
		p.ContactEmail,
		p.ContactPhone,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *Repository) AdjustStock(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE products
		SET quantity = quantity + $1
		WHERE id = $2 AND quantity + $1 >= 0
	`

	res, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Either the product is missing or the deduction would go negative
		if _, err := r.GetProduct(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.AvailableStock,
		&p.ImageURL,
		&p.BusinessName,
		&p.ContactEmail,
		&p.ContactPhone,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
