package db

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"ctchen222/solo-tictactoe/internal/config"
)

// NewRedisClient creates a Redis client for conf and pings it.
func NewRedisClient(ctx context.Context, conf config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr(),
		Password: conf.Password,
		DB:       conf.DB,
	})

	// Ping the server to ensure the connection is established.
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", conf.Addr(), err)
	}

	return client, nil
}
