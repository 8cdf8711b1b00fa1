package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/choshma-zone/storefront/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create writes the order header and its items in one transaction, so a
// line-item failure can never leave an orphaned header behind.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO shop.order (order_uid, user_id, customer_name, email, phone,
			address, city, zip, region, payment_method, payment_description,
			bkash_number, trx_id, delivery_cost, total, status, date_created)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		`, o.OrderUID, nullIfEmpty(o.UserID), o.CustomerName, o.Email, o.Phone,
		o.Address, o.City, o.Zip, o.Region, o.Payment.Method, o.Payment.Description,
		o.Payment.BkashNumber, o.Payment.TrxID, o.DeliveryCost, o.Total, o.Status, o.DateCreated,
	)
	if err != nil {
		return mapError(err)
	}

	for _, it := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO shop.order_item (order_uid, product_id, title, price, quantity)
			VALUES ($1,$2,$3,$4,$5)
			`, o.OrderUID, it.ProductID, it.Title, it.Price, it.Quantity)
		if err != nil {
			return mapError(err)
		}
	}

	return mapError(tx.Commit(ctx))
}

func (r *OrderRepository) GetByUID(ctx context.Context, orderUID string) (*domain.Order, error) {
	var o domain.Order
	var userID *string
	err := r.pool.QueryRow(ctx, `
		SELECT order_uid, user_id, customer_name, email, phone, address, city, zip,
			region, payment_method, payment_description, bkash_number, trx_id,
			delivery_cost, total, status, date_created
		FROM shop.order
		WHERE order_uid=$1`, orderUID,
	).Scan(&o.OrderUID, &userID, &o.CustomerName, &o.Email, &o.Phone, &o.Address,
		&o.City, &o.Zip, &o.Region, &o.Payment.Method, &o.Payment.Description,
		&o.Payment.BkashNumber, &o.Payment.TrxID, &o.DeliveryCost, &o.Total,
		&o.Status, &o.DateCreated)
	if err != nil {
		return nil, mapError(err)
	}
	if userID != nil {
		o.UserID = *userID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, title, price, quantity
		FROM shop.order_item
		WHERE order_uid=$1`, orderUID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Title, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_uid, customer_name, email, phone, address, city, zip, region,
			payment_method, delivery_cost, total, status, date_created
		FROM shop.order
		WHERE user_id=$1
		ORDER BY date_created DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		o.UserID = userID
		if err := rows.Scan(&o.OrderUID, &o.CustomerName, &o.Email, &o.Phone,
			&o.Address, &o.City, &o.Zip, &o.Region, &o.Payment.Method,
			&o.DeliveryCost, &o.Total, &o.Status, &o.DateCreated); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
