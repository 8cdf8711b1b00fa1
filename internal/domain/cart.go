package domain

// CartLine is a single cart position. Display fields are denormalized
// at add-time so the cart stays renderable after a catalog change.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
	Quantity  int     `json:"quantity"`
}

func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}
