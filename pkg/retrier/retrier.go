package retrier

import (
	"context"
	"errors"
	"time"
)

type Retrier interface {
	ExecuteWithContext(ctx context.Context, fn func(context.Context) error) error
}

type ShouldRetryFunc func(error) bool

type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Randomization   float64
	Multiplier      float64

	// nil: повторяются все ошибки, иначе только те, для которых функция вернула true
	ShouldRetry ShouldRetryFunc

	// OnRetry вызывается перед каждым повтором с ошибкой попытки и паузой до следующей.
	OnRetry func(err error, wait time.Duration)
}

// RetryOn повторяет только ошибки, совпавшие через errors.Is с одной из targets.
func RetryOn(targets ...error) ShouldRetryFunc {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}
