package search

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/geo"
)

// Directory supplies the available-therapist candidate set.
type Directory interface {
	ListAvailable(ctx context.Context) ([]domain.TherapistProfile, error)
}

type Cache interface {
	GetAvailableTherapists(ctx context.Context) ([]domain.TherapistProfile, error)
	SetAvailableTherapists(ctx context.Context, profiles []domain.TherapistProfile) error
}

type Query struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Services  []domain.ServiceKey
}

// Result is one in-radius therapist, ordered ascending by distance.
type Result struct {
	Therapist  domain.TherapistProfile
	DistanceKm float64
}

type SearchUseCase interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

type SearchService struct {
	directory Directory
	cache     Cache
	log       *zap.Logger
}

func NewSearchService(directory Directory, cache Cache, log *zap.Logger) *SearchService {
	return &SearchService{directory: directory, cache: cache, log: log}
}

// Search returns every available therapist with a located address within the
// query radius, optionally narrowed to those offering at least one of the
// requested services. Pure read path; no side effects.
func (s *SearchService) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.RadiusKm <= 0 {
		return []Result{}, nil
	}

	candidates, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, t := range candidates {
		if !t.Location.HasCoordinates() {
			continue
		}
		distance := geo.Haversine(q.Latitude, q.Longitude,
			t.Location.Latitude.Decimal.InexactFloat64(),
			t.Location.Longitude.Decimal.InexactFloat64())
		if distance > q.RadiusKm {
			continue
		}
		if len(q.Services) > 0 && !t.Services.HasAny(q.Services) {
			continue
		}
		results = append(results, Result{
			Therapist:  t,
			DistanceKm: math.Round(distance*100) / 100,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	return results, nil
}

func (s *SearchService) loadCandidates(ctx context.Context) ([]domain.TherapistProfile, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetAvailableTherapists(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	candidates, err := s.directory.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAvailableTherapists(ctx, candidates); err != nil {
			s.log.Warn("cache therapist candidates", zap.Error(err))
		}
	}
	return candidates, nil
}

var _ SearchUseCase = (*SearchService)(nil)
