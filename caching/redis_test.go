package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"

	"recording-oracle/goutils/datamodel"
	"recording-oracle/goutils/redisutils"
)

func testProgress() *datamodel.CampaignProgress {
	totalVolume := 500.0

	return &datamodel.CampaignProgress{
		From: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ParticipantsOutcomes: []datamodel.ParticipantOutcome{
			{Address: "0xaaaa", Score: 500, TotalVolume: &totalVolume},
		},
		Meta: datamodel.ProgressMeta{TotalVolume: &totalVolume},
	}
}

func TestRedisCache_SetInterimProgress(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &RedisCache{redisClient: client}

	progress := testProgress()
	data, err := json.Marshal(progress)
	assert.NoError(t, err)

	key := fmt.Sprintf(redisutils.REDIS_KEY_CAMPAIGN_INTERIM_PROGRESS, "campaign-1")

	// the expiration is derived from the wall clock, match command, key and value only
	mock.CustomMatch(func(expected, actual []interface{}) error {
		for i := 0; i < 3 && i < len(expected) && i < len(actual); i++ {
			if fmt.Sprint(expected[i]) != fmt.Sprint(actual[i]) {
				return fmt.Errorf("arg %d mismatch: %v != %v", i, expected[i], actual[i])
			}
		}

		return nil
	}).ExpectSet(key, data, time.Hour).SetVal("OK")

	err = cache.SetInterimProgress(context.Background(), "campaign-1", progress, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_SetInterimProgress_ExpiredValidUntil(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &RedisCache{redisClient: client}

	// nothing is cached for a campaign that is already over
	err := cache.SetInterimProgress(context.Background(), "campaign-1", testProgress(), time.Now().Add(-time.Minute))
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GetInterimProgress(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &RedisCache{redisClient: client}

	progress := testProgress()
	data, err := json.Marshal(progress)
	assert.NoError(t, err)

	key := fmt.Sprintf(redisutils.REDIS_KEY_CAMPAIGN_INTERIM_PROGRESS, "campaign-1")
	mock.ExpectGet(key).SetVal(string(data))

	got, err := cache.GetInterimProgress(context.Background(), "campaign-1")
	assert.NoError(t, err)
	assert.Equal(t, progress, got)
}

func TestRedisCache_GetInterimProgress_NotFound(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &RedisCache{redisClient: client}

	key := fmt.Sprintf(redisutils.REDIS_KEY_CAMPAIGN_INTERIM_PROGRESS, "campaign-1")
	mock.ExpectGet(key).RedisNil()

	_, err := cache.GetInterimProgress(context.Background(), "campaign-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
