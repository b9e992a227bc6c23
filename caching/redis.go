package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"

	"recording-oracle/goutils/datamodel"
	"recording-oracle/goutils/redisutils"
)

type RedisCache struct {
	redisClient *redis.Client
}

var _ DbCache = (*RedisCache)(nil)

func NewRedisCache() *RedisCache {
	client, err := gi.Invoke[*redis.Client]()
	if err != nil {
		log.Fatal("Failed to invoke redis client", err)
	}

	cache := &RedisCache{redisClient: client}

	err = gi.Inject(cache)
	if err != nil {
		log.Fatal("Failed to inject redis cache", err)
	}

	return cache
}

// SetInterimProgress caches the progress until validUntil, which is the
// campaign end; stale entries self-expire without a cleanup job.
func (r *RedisCache) SetInterimProgress(ctx context.Context, campaignID string, progress *datamodel.CampaignProgress, validUntil time.Time) error {
	key := fmt.Sprintf(redisutils.REDIS_KEY_CAMPAIGN_INTERIM_PROGRESS, campaignID)

	ttl := time.Until(validUntil)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(progress)
	if err != nil {
		log.WithError(err).Error("failed to marshal interim progress")

		return err
	}

	err = r.redisClient.Set(ctx, key, data, ttl).Err()
	if err != nil {
		log.WithError(err).WithField("campaignId", campaignID).Error("failed to cache interim progress")

		return err
	}

	return nil
}

func (r *RedisCache) GetInterimProgress(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error) {
	key := fmt.Sprintf(redisutils.REDIS_KEY_CAMPAIGN_INTERIM_PROGRESS, campaignID)

	val, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		log.WithError(err).WithField("campaignId", campaignID).Error("failed to get interim progress")

		return nil, err
	}

	progress := new(datamodel.CampaignProgress)
	if err := json.Unmarshal([]byte(val), progress); err != nil {
		log.WithError(err).Error("failed to unmarshal interim progress")

		return nil, err
	}

	return progress, nil
}
