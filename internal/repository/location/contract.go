package location

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client подмножество redis.Cmdable, которое использует хранилище.
type Client interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	GeoSearchLocation(ctx context.Context, key string, q *redis.GeoSearchLocationQuery) *redis.GeoSearchLocationCmd
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

type Clock func() time.Time
