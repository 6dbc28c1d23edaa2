package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/luxtouch/spadispatch/internal/domain"
)

type BookingFilter struct {
	CustomerID  string
	TherapistID string
	Status      domain.BookingStatus
	MaxDistance *decimal.Decimal
}

type BookingRepository interface {
	CreateOnAccept(ctx context.Context, requestID string, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	UpdateStatusIf(ctx context.Context, id string, expect, next domain.BookingStatus, reason string) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, customer_id, therapist_id, timeslot_from, timeslot_to, services,
	subtotal, coupon_code, coupon_discount, total, status, COALESCE(cancellation_reason, ''),
	latitude, longitude, distance, created_at, started_at, completed_at, cancelled_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.CustomerID, &b.TherapistID, &b.TimeslotFrom, &b.TimeslotTo,
		&b.Services, &b.Subtotal, &b.CouponCode, &b.CouponDiscount, &b.Total, &b.Status,
		&b.CancellationReason, &b.Latitude, &b.Longitude, &b.Distance,
		&b.CreatedAt, &b.StartedAt, &b.CompletedAt, &b.CancelledAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateOnAccept commits the accept transition as one transaction: the
// request's conditional move out of pending, the coupon's conditional usage
// increment, and the booking insert. Either all three land or none do.
//
// If the coupon's conditional increment finds no applicable row (deactivated,
// outside its window, or exhausted by a concurrent accept), the booking is
// committed undiscounted; the booking fields are rewritten accordingly.
func (r *PGBookingRepository) CreateOnAccept(ctx context.Context, requestID string, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE pending_requests SET status='accepted' WHERE id=$1 AND status='pending'`, requestID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	if booking.CouponCode != nil {
		cmd, err = tx.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1, updated_at = now()
			WHERE code=$1 AND is_active
			AND valid_from <= now() AND valid_until >= now()
			AND (usage_limit IS NULL OR used_count < usage_limit)`,
			*booking.CouponCode)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			booking.CouponCode = nil
			booking.CouponDiscount = decimal.Zero
			booking.Total = booking.Subtotal
		}
	}

	services, err := json.Marshal(booking.Services)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `INSERT INTO bookings
		(id, customer_id, therapist_id, timeslot_from, timeslot_to, services,
		 subtotal, coupon_code, coupon_discount, total, status, latitude, longitude, distance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`,
		booking.ID, booking.CustomerID, booking.TherapistID, booking.TimeslotFrom, booking.TimeslotTo,
		services, booking.Subtotal, booking.CouponCode, booking.CouponDiscount, booking.Total,
		booking.Status, booking.Latitude, booking.Longitude, booking.Distance).
		Scan(&booking.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.CustomerID != "" {
		query += ` AND customer_id=` + arg(filter.CustomerID)
	}
	if filter.TherapistID != "" {
		query += ` AND therapist_id=` + arg(filter.TherapistID)
	}
	if filter.Status != "" {
		query += ` AND status=` + arg(filter.Status)
	}
	if filter.MaxDistance != nil {
		query += ` AND distance <= ` + arg(*filter.MaxDistance)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// UpdateStatusIf moves the booking from the expected status to the next one,
// stamping the matching timestamp. A vanished expectation means a concurrent
// transition won; the caller gets domain.ErrConflict.
func (r *PGBookingRepository) UpdateStatusIf(ctx context.Context, id string, expect, next domain.BookingStatus, reason string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$2,
			started_at = CASE WHEN $2::text = 'started' THEN now() ELSE started_at END,
			completed_at = CASE WHEN $2::text = 'completed' THEN now() ELSE completed_at END,
			cancelled_at = CASE WHEN $2::text = 'cancelled' THEN now() ELSE cancelled_at END,
			cancellation_reason = CASE WHEN $2::text = 'cancelled' THEN $4 ELSE cancellation_reason END
		WHERE id=$1 AND status=$3
		RETURNING `+bookingColumns, id, next, expect, reason))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConflict
	}
	return b, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
