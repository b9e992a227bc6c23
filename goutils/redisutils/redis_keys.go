package redisutils

const (
	REDIS_KEY_CAMPAIGN_INTERIM_PROGRESS string = "campaignID:%s:interimProgress"
)
