package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxtouch/spadispatch/internal/domain"
)

// DeviceTokenRepository is the push-token registry: zero or one delivery
// token per user.
type DeviceTokenRepository interface {
	Save(ctx context.Context, userID, token string) error
	Get(ctx context.Context, userID string) (string, error)
}

type PGDeviceTokenRepository struct {
	db *pgxpool.Pool
}

func NewDeviceTokenRepository(db *pgxpool.Pool) DeviceTokenRepository {
	return &PGDeviceTokenRepository{db: db}
}

func (r *PGDeviceTokenRepository) Save(ctx context.Context, userID, token string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO device_tokens (user_id, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET token=EXCLUDED.token, updated_at=now()`,
		userID, token)
	return err
}

func (r *PGDeviceTokenRepository) Get(ctx context.Context, userID string) (string, error) {
	var token string
	err := r.db.QueryRow(ctx, `SELECT token FROM device_tokens WHERE user_id=$1`, userID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return token, err
}

var _ DeviceTokenRepository = (*PGDeviceTokenRepository)(nil)
