package redis

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/pkg/config"
	"dispatch/internal/pkg/dependency"
	"dispatch/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

var startupPolicy = dependency.Policy{
	InitialInterval: time.Second,
	MaxInterval:     15 * time.Second,
	MaxElapsedTime:  time.Minute,
}

// NewClient клиент для гео-индекса курьеров и шины relay.
func NewClient(ctx context.Context, log logger.Logger, cfg *config.Redis) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	redisLog := log.With(
		logger.NewField("addr", cfg.Addr),
		logger.NewField("db", cfg.DB),
	)

	err := dependency.WaitReady(ctx, redisLog, "redis", startupPolicy, NewPinger(client).Ping)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis connection: %w (failed to close: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("redis connection: %w", err)
	}

	return client, nil
}

// Pinger проверка готовности Redis для /ping.
type Pinger struct {
	client *goredis.Client
}

func NewPinger(client *goredis.Client) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
