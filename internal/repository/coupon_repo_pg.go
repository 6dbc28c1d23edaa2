package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxtouch/spadispatch/internal/domain"
)

type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type PGCouponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) CouponRepository {
	return &PGCouponRepository{db: db}
}

// GetByCode reads a coupon for validation and quoting. The usage increment
// never happens here; it is part of the accept transaction.
func (r *PGCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, name, description, discount_type, discount_value,
			minimum_order_amount, maximum_discount_amount, usage_limit, used_count, is_active,
			valid_from, valid_until, created_at, updated_at
		FROM coupons WHERE code=$1`, code)

	var c domain.Coupon
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.MinOrder, &c.MaxDiscount, &c.UsageLimit, &c.UsedCount, &c.IsActive,
		&c.ValidFrom, &c.ValidUntil, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ CouponRepository = (*PGCouponRepository)(nil)
