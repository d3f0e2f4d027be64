package checkout

import "time"

const (
	// Currency for all orders; the storefront prices in INR.
	Currency = "INR"

	StatusCompleted = "COMPLETED"
)

// Address is the shipping address collected on the checkout form. All four
// fields are required.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// Complete reports whether every address field was filled in.
func (a Address) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.ZipCode != ""
}

// OrderLine is one purchased product within an order, frozen at the prices
// and quantities the cart held when the order was placed.
type OrderLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is a finalized purchase built from a cart snapshot.
type Order struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id"`
	Lines          []OrderLine `json:"lines"`
	Address        Address     `json:"address"`
	Total          float64     `json:"total"`
	Currency       string      `json:"currency"`
	IdempotencyKey string      `json:"-"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

// orderCompletedEvent is the outbox payload published after an order lands.
type orderCompletedEvent struct {
	OrderID     string      `json:"order_id"`
	SessionID   string      `json:"session_id"`
	Items       []OrderLine `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Currency    string      `json:"currency"`
	CompletedAt time.Time   `json:"completed_at"`
}
