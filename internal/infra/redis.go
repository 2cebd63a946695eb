package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects the job-queue client. Accepts the full redis:// URL
// form including database index.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Fail startup on an unreachable queue instead of silently dropping
	// dispatched jobs later.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
