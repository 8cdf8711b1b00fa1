package domain

import "time"

// WishlistEntry is a product saved by a user. Entries created optimistically
// carry a locally generated ID until the store confirms the write.
type WishlistEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
