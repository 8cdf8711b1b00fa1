package domain

import (
	"context"
)

type ProductRepository interface {
	List(ctx context.Context, activeOnly bool) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

type WishlistRepository interface {
	ListByUser(ctx context.Context, userID string) ([]WishlistEntry, error)
	Add(ctx context.Context, e *WishlistEntry) error
	Remove(ctx context.Context, userID, productID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByUID(ctx context.Context, orderUID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
