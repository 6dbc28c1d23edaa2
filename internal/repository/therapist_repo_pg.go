package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxtouch/spadispatch/internal/domain"
)

type TherapistRepository interface {
	SaveLocation(ctx context.Context, loc *domain.Location) error
	GetLocation(ctx context.Context, therapistID string) (*domain.Location, error)
	SetAvailability(ctx context.Context, therapistID string, status domain.Availability) error
	GetAvailability(ctx context.Context, therapistID string) (domain.Availability, error)
	SavePriceList(ctx context.Context, therapistID string, prices domain.PriceList) error
	GetPriceList(ctx context.Context, therapistID string) (domain.PriceList, error)
	ListAvailable(ctx context.Context) ([]domain.TherapistProfile, error)
}

type PGTherapistRepository struct {
	db *pgxpool.Pool
}

func NewTherapistRepository(db *pgxpool.Pool) TherapistRepository {
	return &PGTherapistRepository{db: db}
}

// SaveLocation upserts the single active location record of a therapist.
func (r *PGTherapistRepository) SaveLocation(ctx context.Context, loc *domain.Location) error {
	return r.db.QueryRow(ctx, `INSERT INTO therapist_locations (therapist_id, address, service_radius_km, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (therapist_id) DO UPDATE
		SET address=EXCLUDED.address, service_radius_km=EXCLUDED.service_radius_km,
			latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude, updated_at=now()
		RETURNING updated_at`,
		loc.TherapistID, loc.Address, loc.ServiceRadiusKm, loc.Latitude, loc.Longitude).
		Scan(&loc.UpdatedAt)
}

func (r *PGTherapistRepository) GetLocation(ctx context.Context, therapistID string) (*domain.Location, error) {
	row := r.db.QueryRow(ctx, `SELECT therapist_id, address, service_radius_km, latitude, longitude, updated_at
		FROM therapist_locations WHERE therapist_id=$1`, therapistID)
	var loc domain.Location
	if err := row.Scan(&loc.TherapistID, &loc.Address, &loc.ServiceRadiusKm, &loc.Latitude, &loc.Longitude, &loc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func (r *PGTherapistRepository) SetAvailability(ctx context.Context, therapistID string, status domain.Availability) error {
	_, err := r.db.Exec(ctx, `INSERT INTO therapist_availability (therapist_id, status, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (therapist_id) DO UPDATE SET status=EXCLUDED.status, updated_at=now()`,
		therapistID, status)
	return err
}

func (r *PGTherapistRepository) GetAvailability(ctx context.Context, therapistID string) (domain.Availability, error) {
	var status domain.Availability
	err := r.db.QueryRow(ctx, `SELECT status FROM therapist_availability WHERE therapist_id=$1`, therapistID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AvailabilityUnavailable, nil
	}
	return status, err
}

func (r *PGTherapistRepository) SavePriceList(ctx context.Context, therapistID string, prices domain.PriceList) error {
	payload, err := json.Marshal(prices)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO therapist_services (therapist_id, services, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (therapist_id) DO UPDATE SET services=EXCLUDED.services, updated_at=now()`,
		therapistID, payload)
	return err
}

func (r *PGTherapistRepository) GetPriceList(ctx context.Context, therapistID string) (domain.PriceList, error) {
	var prices domain.PriceList
	err := r.db.QueryRow(ctx, `SELECT services FROM therapist_services WHERE therapist_id=$1`, therapistID).Scan(&prices)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PriceList{}, nil
	}
	return prices, err
}

// ListAvailable returns every therapist currently flagged available, joined
// with its location and price list. Profile names come from the identity
// service's read-only projection.
func (r *PGTherapistRepository) ListAvailable(ctx context.Context) ([]domain.TherapistProfile, error) {
	rows, err := r.db.Query(ctx, `SELECT l.therapist_id, COALESCE(p.name, ''), COALESCE(p.email, ''),
			l.address, l.service_radius_km, l.latitude, l.longitude, l.updated_at,
			COALESCE(s.services, '{}'::jsonb)
		FROM therapist_locations l
		JOIN therapist_availability a ON a.therapist_id = l.therapist_id AND a.status = 'available'
		LEFT JOIN therapist_profiles p ON p.therapist_id = l.therapist_id
		LEFT JOIN therapist_services s ON s.therapist_id = l.therapist_id
		ORDER BY l.therapist_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.TherapistProfile
	for rows.Next() {
		var t domain.TherapistProfile
		if err := rows.Scan(&t.ID, &t.Name, &t.Email,
			&t.Location.Address, &t.Location.ServiceRadiusKm,
			&t.Location.Latitude, &t.Location.Longitude, &t.Location.UpdatedAt,
			&t.Services); err != nil {
			return nil, err
		}
		t.Location.TherapistID = t.ID
		profiles = append(profiles, t)
	}
	return profiles, rows.Err()
}

var _ TherapistRepository = (*PGTherapistRepository)(nil)
