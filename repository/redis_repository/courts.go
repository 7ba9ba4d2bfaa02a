package redis_repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const courtKeyPrefix = "court:"

// CourtRepository caches court display names keyed by court identifier.
// Court metadata changes rarely, so entries carry a long TTL.
type CourtRepository interface {
	GetCourtName(ctx context.Context, courtID string) (string, bool, error)
	SaveCourtName(ctx context.Context, courtID, name string) error
}

type redisCourtRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCourtRepository(client *redis.Client, ttl time.Duration) CourtRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return redisCourtRepository{client: client, ttl: ttl}
}

func (r redisCourtRepository) GetCourtName(ctx context.Context, courtID string) (string, bool, error) {
	name, err := r.client.Get(ctx, courtKeyPrefix+courtID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (r redisCourtRepository) SaveCourtName(ctx context.Context, courtID, name string) error {
	return r.client.Set(ctx, courtKeyPrefix+courtID, name, r.ttl).Err()
}
