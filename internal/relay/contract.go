package relay

import (
	"context"

	"dispatch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

type relayLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
}

// Bus доставляет кадры между репликами. Subscribe блокируется до отмены ctx.
type Bus interface {
	Publish(ctx context.Context, frame []byte) error
	Subscribe(ctx context.Context, handle func(frame []byte)) error
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}
