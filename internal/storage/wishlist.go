package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/choshma-zone/storefront/internal/domain"
)

type WishlistRepository struct {
	pool *pgxpool.Pool
}

func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, product_id, title, price, image_url, created_at
		FROM shop.wishlist
		WHERE user_id=$1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.WishlistEntry
	for rows.Next() {
		var e domain.WishlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.Title, &e.Price, &e.ImageURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Add inserts the entry and fills in the store-assigned id and timestamp.
// A (user_id, product_id) uniqueness violation maps to domain.ErrDuplicateEntry.
func (r *WishlistRepository) Add(ctx context.Context, e *domain.WishlistEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO shop.wishlist (user_id, product_id, title, price, image_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		e.UserID, e.ProductID, e.Title, e.Price, e.ImageURL,
	).Scan(&e.ID, &e.CreatedAt)
	return mapError(err)
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM shop.wishlist WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return mapError(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
