package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luxtouch/spadispatch/config"
	"github.com/luxtouch/spadispatch/internal/domain"
)

// RedisCache keeps the locator's candidate set warm between searches. The
// search path is read-only, so a short TTL is the only invalidation needed.
type RedisCache struct {
	client       *redis.Client
	therapistTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, therapistTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		therapistTTL: therapistTTL,
	}
}

func (c *RedisCache) GetAvailableTherapists(ctx context.Context) ([]domain.TherapistProfile, error) {
	data, err := c.client.Get(ctx, availableTherapistsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var profiles []domain.TherapistProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *RedisCache) SetAvailableTherapists(ctx context.Context, profiles []domain.TherapistProfile) error {
	payload, err := json.Marshal(profiles)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availableTherapistsKey(), payload, c.therapistTTL).Err()
}

// InvalidateAvailableTherapists drops the candidate set after a therapist
// changes location, availability or prices.
func (c *RedisCache) InvalidateAvailableTherapists(ctx context.Context) error {
	return c.client.Del(ctx, availableTherapistsKey()).Err()
}

func availableTherapistsKey() string {
	return "cache:therapists:available"
}
