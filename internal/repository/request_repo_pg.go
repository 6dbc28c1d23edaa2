package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxtouch/spadispatch/internal/domain"
)

type PendingRequestRepository interface {
	Create(ctx context.Context, req *domain.PendingRequest) error
	GetByID(ctx context.Context, id string) (*domain.PendingRequest, error)
	FindPendingDuplicate(ctx context.Context, req *domain.PendingRequest) (*domain.PendingRequest, error)
	UpdateStatusIfPending(ctx context.Context, id string, status domain.RequestStatus) (bool, error)
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]domain.PendingRequest, error)
	ListForUser(ctx context.Context, userID string, role domain.Role, status domain.RequestStatus) ([]domain.PendingRequest, error)
}

type PGPendingRequestRepository struct {
	db *pgxpool.Pool
}

func NewPendingRequestRepository(db *pgxpool.Pool) PendingRequestRepository {
	return &PGPendingRequestRepository{db: db}
}

const requestColumns = `id, customer_id, customer_name, therapist_id, status, services,
	COALESCE(coupon_code, ''), timeslot_from, timeslot_to, latitude, longitude, distance, created_at`

func scanRequest(row pgx.Row) (*domain.PendingRequest, error) {
	var req domain.PendingRequest
	if err := row.Scan(&req.ID, &req.CustomerID, &req.CustomerName, &req.TherapistID, &req.Status,
		&req.Services, &req.CouponCode, &req.TimeslotFrom, &req.TimeslotTo,
		&req.Latitude, &req.Longitude, &req.Distance, &req.CreatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PGPendingRequestRepository) Create(ctx context.Context, req *domain.PendingRequest) error {
	services, err := json.Marshal(req.Services)
	if err != nil {
		return err
	}
	var coupon any
	if req.CouponCode != "" {
		coupon = req.CouponCode
	}
	return r.db.QueryRow(ctx, `INSERT INTO pending_requests
		(id, customer_id, customer_name, therapist_id, status, services, coupon_code,
		 timeslot_from, timeslot_to, latitude, longitude, distance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		req.ID, req.CustomerID, req.CustomerName, req.TherapistID, req.Status, services, coupon,
		req.TimeslotFrom, req.TimeslotTo, req.Latitude, req.Longitude, req.Distance).
		Scan(&req.CreatedAt)
}

func (r *PGPendingRequestRepository) GetByID(ctx context.Context, id string) (*domain.PendingRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM pending_requests WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return req, err
}

// FindPendingDuplicate looks up a still-pending request with the exact same
// tuple, so that a duplicate tap returns the original id instead of creating
// a second request.
func (r *PGPendingRequestRepository) FindPendingDuplicate(ctx context.Context, req *domain.PendingRequest) (*domain.PendingRequest, error) {
	services, err := json.Marshal(req.Services)
	if err != nil {
		return nil, err
	}
	existing, err := scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM pending_requests
		WHERE customer_id=$1 AND therapist_id=$2 AND status='pending'
		AND services=$3::jsonb AND timeslot_from=$4 AND timeslot_to=$5
		AND latitude=$6 AND longitude=$7 AND distance=$8
		ORDER BY created_at LIMIT 1`,
		req.CustomerID, req.TherapistID, services,
		req.TimeslotFrom, req.TimeslotTo, req.Latitude, req.Longitude, req.Distance))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return existing, err
}

// UpdateStatusIfPending performs the single-winner transition: the update
// lands only while the row is still pending. A false return means the race
// was lost.
func (r *PGPendingRequestRepository) UpdateStatusIfPending(ctx context.Context, id string, status domain.RequestStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE pending_requests SET status=$1 WHERE id=$2 AND status='pending'`, status, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGPendingRequestRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]domain.PendingRequest, error) {
	rows, err := r.db.Query(ctx, `UPDATE pending_requests SET status='expired'
		WHERE status='pending' AND created_at < $1
		RETURNING `+requestColumns, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.PendingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *req)
	}
	return expired, rows.Err()
}

func (r *PGPendingRequestRepository) ListForUser(ctx context.Context, userID string, role domain.Role, status domain.RequestStatus) ([]domain.PendingRequest, error) {
	column := "therapist_id"
	if role == domain.RoleCustomer {
		column = "customer_id"
	}
	query := `SELECT ` + requestColumns + ` FROM pending_requests WHERE ` + column + `=$1`
	args := []any{userID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.PendingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

var _ PendingRequestRepository = (*PGPendingRequestRepository)(nil)
