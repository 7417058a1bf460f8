package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/college-erp-api/pkg/config"
)

// NewRedis returns a configured Redis client used for import progress
// pub/sub and job status storage.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// ProgressChannel is the pub/sub channel carrying progress events for a job.
func ProgressChannel(jobID string) string {
	return "erp:progress:" + jobID
}

// ImportJobKey is the key storing an import job snapshot.
func ImportJobKey(jobID string) string {
	return "erp:import:" + jobID
}
