package redisutils

import (
	"context"
	"net"
	"strconv"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"
)

func InitRedisClient(redisHost string, port int, redisDb int, poolSize int, password string) *redis.Client {
	redisURL := net.JoinHostPort(redisHost, strconv.Itoa(port))

	log.Info("connecting to redis at:", redisURL)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       redisDb,
		PoolSize: poolSize,
	})

	pong, err := redisClient.Ping(context.Background()).Result()
	if err != nil {
		log.WithField("addr", redisURL).Fatal("unable to connect to redis")
	}

	log.Info("connected successfully to redis and received ", pong, " back")

	err = gi.Inject(redisClient)
	if err != nil {
		log.Fatal("failed to inject redis client", err)
	}

	return redisClient
}
