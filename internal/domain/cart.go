package domain

// CartLine is one product's entry in a cart. UnitPrice and StockCeiling are
// captured from the Product when the line is created; later catalog changes
// do not flow back into existing lines.
//
// The JSON field names deliberately mirror the product record plus quantity,
// which is also the persisted wire shape of a cart slot.
type CartLine struct {
	ProductID    string  `json:"id"`
	Name         string  `json:"name"`
	UnitPrice    float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	StockCeiling int     `json:"available_stock"`
	ImageURL     string  `json:"image_url,omitempty"`
	BusinessName string  `json:"business_name,omitempty"`
	ContactEmail string  `json:"contact_email,omitempty"`
}

// Subtotal returns quantity * unit price for this line.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Valid reports whether the line satisfies the cart invariants:
// a known product and 1 <= quantity <= stock ceiling.
func (l CartLine) Valid() bool {
	return l.ProductID != "" && l.Quantity >= 1 && l.Quantity <= l.StockCeiling
}

// Cart is an ordered snapshot of cart lines. Totals are always derived from
// the lines, never stored alongside them.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Total returns the sum of line subtotals.
func (c Cart) Total() float64 {
	var sum float64
	for _, l := range c.Lines {
		sum += l.Subtotal()
	}
	return sum
}

// Count returns the sum of quantities across lines (the nav badge number).
func (c Cart) Count() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Find returns the line for productID, if present.
func (c Cart) Find(productID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}
