package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/choshma-zone/storefront/internal/domain"
)

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM shop.account
		WHERE email=$1`, email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *Account) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO shop.account (email, password_hash)
		VALUES ($1,$2)
		RETURNING id, created_at`,
		a.Email, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt)
	return mapError(err)
}

// SaveSession stores an opaque session token; expired rows are cleaned up
// lazily on lookup.
func (r *AccountRepository) SaveSession(ctx context.Context, token, accountID string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shop.session (token, account_id, expires_at)
		VALUES ($1,$2,$3)`, token, accountID, expiresAt)
	return mapError(err)
}

func (r *AccountRepository) SessionAccount(ctx context.Context, token string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.email, a.password_hash, a.created_at
		FROM shop.session s
		JOIN shop.account a ON a.id = s.account_id
		WHERE s.token=$1 AND s.expires_at > now()`, token,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *AccountRepository) DeleteSession(ctx context.Context, token string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM shop.session WHERE token=$1`, token)
	if err != nil {
		return mapError(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
