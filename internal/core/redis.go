package core

import (
	"context"
	"fmt"
	"time"

	"github.com/imanix/b2b-storefront/config"
	goredis "github.com/redis/go-redis/v9"
)

// ConnectRedis creates a go-redis client and verifies it with a ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
