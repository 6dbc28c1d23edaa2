package therapist

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/repository"
)

// CandidateCache invalidates the locator's warmed candidate set when a
// therapist's profile changes.
type CandidateCache interface {
	InvalidateAvailableTherapists(ctx context.Context) error
}

type TherapistUseCase interface {
	SaveLocation(ctx context.Context, loc *domain.Location) error
	GetLocation(ctx context.Context, therapistID string) (*domain.Location, error)
	SetAvailability(ctx context.Context, therapistID string, status domain.Availability) error
	GetAvailability(ctx context.Context, therapistID string) (domain.Availability, error)
	SavePriceList(ctx context.Context, therapistID string, raw map[string]string) (domain.PriceList, error)
	GetPriceList(ctx context.Context, therapistID string) (domain.PriceList, error)
}

type TherapistService struct {
	therapists repository.TherapistRepository
	cache      CandidateCache
	log        *zap.Logger
}

func NewTherapistService(therapists repository.TherapistRepository, cache CandidateCache, log *zap.Logger) *TherapistService {
	return &TherapistService{therapists: therapists, cache: cache, log: log}
}

// SaveLocation upserts the therapist's single location record and, as an
// explicit post-condition, flips availability to available. First-time
// onboarding ends with a locatable, available therapist.
func (s *TherapistService) SaveLocation(ctx context.Context, loc *domain.Location) error {
	if loc.TherapistID == "" {
		return domain.Validationf("therapist id is required")
	}
	if loc.ServiceRadiusKm.IsNegative() {
		return domain.Validationf("service radius must not be negative")
	}
	if loc.Latitude.Valid != loc.Longitude.Valid {
		return domain.Validationf("latitude and longitude must be set together")
	}

	if err := s.therapists.SaveLocation(ctx, loc); err != nil {
		return err
	}
	if err := s.therapists.SetAvailability(ctx, loc.TherapistID, domain.AvailabilityAvailable); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *TherapistService) GetLocation(ctx context.Context, therapistID string) (*domain.Location, error) {
	return s.therapists.GetLocation(ctx, therapistID)
}

func (s *TherapistService) SetAvailability(ctx context.Context, therapistID string, status domain.Availability) error {
	if status != domain.AvailabilityAvailable && status != domain.AvailabilityUnavailable {
		return domain.Validationf("invalid availability %q", status)
	}
	if err := s.therapists.SetAvailability(ctx, therapistID, status); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *TherapistService) GetAvailability(ctx context.Context, therapistID string) (domain.Availability, error) {
	return s.therapists.GetAvailability(ctx, therapistID)
}

// SavePriceList validates raw prices against the service catalog and stores
// them. Unknown keys are rejected here, at write time; quoting stays
// permissive.
func (s *TherapistService) SavePriceList(ctx context.Context, therapistID string, raw map[string]string) (domain.PriceList, error) {
	prices := make(domain.PriceList, len(raw))
	for rawKey, rawPrice := range raw {
		key := domain.NormalizeServiceKey(rawKey)
		if !key.InCatalog() {
			return nil, domain.Validationf("unknown service %q", rawKey)
		}
		price, err := decimal.NewFromString(rawPrice)
		if err != nil {
			return nil, domain.Validationf("invalid price for %q", rawKey)
		}
		if price.IsNegative() {
			return nil, domain.Validationf("price for %q must not be negative", rawKey)
		}
		prices[key] = price
	}

	if err := s.therapists.SavePriceList(ctx, therapistID, prices); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return prices, nil
}

func (s *TherapistService) GetPriceList(ctx context.Context, therapistID string) (domain.PriceList, error) {
	return s.therapists.GetPriceList(ctx, therapistID)
}

func (s *TherapistService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailableTherapists(ctx); err != nil {
		s.log.Warn("invalidate therapist cache", zap.Error(err))
	}
}

var _ TherapistUseCase = (*TherapistService)(nil)
