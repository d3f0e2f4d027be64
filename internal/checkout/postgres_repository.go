package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
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

func (r *Repository) CreateOrder(ctx context.Context, order *Order, eventPayload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, street, city, state, zip_code, total, currency, idempotency_key, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		order.ID,
		order.SessionID,
		order.Address.Street,
		order.Address.City,
		order.Address.State,
		order.Address.ZipCode,
		order.Total,
		order.Currency,
		order.IdempotencyKey,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			order.ID,
			line.ProductID,
			line.ProductName,
			line.Quantity,
			line.UnitPrice,
			line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)
	`,
		order.ID,
		"order.completed",
		eventPayload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	return r.getOrderWhere(ctx, "idempotency_key = $1", key, ErrIdempotencyKeyMiss)
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*Order, error) {
	return r.getOrderWhere(ctx, "id = $1", id, ErrOrderNotFound)
}

func (r *Repository) getOrderWhere(ctx context.Context, where, arg string, missErr error) (*Order, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, street, city, state, zip_code, total, currency, idempotency_key, status, created_at
		FROM orders
		WHERE %s
	`, where)

	order := &Order{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&order.ID,
		&order.SessionID,
		&order.Address.Street,
		&order.Address.City,
		&order.Address.State,
		&order.Address.ZipCode,
		&order.Total,
		&order.Currency,
		&order.IdempotencyKey,
		&order.Status,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missErr
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrders(ctx context.Context, sessionID string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, street, city, state, zip_code, total, currency, idempotency_key, status, created_at
		FROM orders
		WHERE session_id = $1
		ORDER BY created_at DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order := &Order{}
		err := rows.Scan(
			&order.ID,
			&order.SessionID,
			&order.Address.Street,
			&order.Address.City,
			&order.Address.State,
			&order.Address.ZipCode,
			&order.Total,
			&order.Currency,
			&order.IdempotencyKey,
			&order.Status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		if err := r.loadLines(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) loadLines(ctx context.Context, order *Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price, subtotal
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line OrderLine
		err := rows.Scan(
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		ev := &OutboxEvent{}
		err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET processed_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
