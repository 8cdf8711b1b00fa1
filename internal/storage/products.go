package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/choshma-zone/storefront/internal/domain"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	q := `
		SELECT id, title, description, price, image_url, category, active, created_at, updated_at
		FROM shop.product
		ORDER BY created_at DESC`
	if activeOnly {
		q = `
		SELECT id, title, description, price, image_url, category, active, created_at, updated_at
		FROM shop.product
		WHERE active
		ORDER BY created_at DESC`
	}

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.ImageURL,
			&p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, description, price, image_url, category, active, created_at, updated_at
		FROM shop.product
		WHERE id=$1`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.ImageURL,
		&p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shop.product (id, title, description, price, image_url, category, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		ON CONFLICT (id)
		DO UPDATE SET
			title=EXCLUDED.title,
			description=EXCLUDED.description,
			price=EXCLUDED.price,
			image_url=EXCLUDED.image_url,
			category=EXCLUDED.category,
			active=EXCLUDED.active,
			updated_at=now()
		`, p.ID, p.Title, p.Description, p.Price, p.ImageURL, p.Category, p.Active)
	return mapError(err)
}

// Delete fails with domain.ErrReferenced when the product appears in order
// items; callers are expected to deactivate instead.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM shop.product WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
