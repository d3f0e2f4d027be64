package domain

// Product is the catalog read model consumed by the cart and checkout flows.
// The cart never mutates a Product; AvailableStock is the ceiling captured at
// the moment a cart line is created.
type Product struct {
	ID             string  `json:"id"`
	SellerID       string  `json:"seller_id,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Price          float64 `json:"price"`
	Category       string  `json:"category,omitempty"`
	AvailableStock int     `json:"available_stock"`
	ImageURL       string  `json:"image_url,omitempty"`
	BusinessName   string  `json:"business_name,omitempty"`
	ContactEmail   string  `json:"contact_email,omitempty"`
	ContactPhone   string  `json:"contact_phone,omitempty"`
}

// InStock reports whether at least one unit can be added to a cart.
func (p Product) InStock() bool {
	return p.AvailableStock > 0
}
