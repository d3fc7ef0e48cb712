// Package dependency ожидание внешних зависимостей при старте процесса.
package dependency

import (
	"context"
	"fmt"
	"time"

	"dispatch/pkg/logger"
	"dispatch/pkg/retrier"
	"dispatch/pkg/retrier/backoff_adapter"
)

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// WaitReady повторяет ping с экспоненциальной паузой, пока он не пройдёт или не истечёт MaxElapsedTime.
func WaitReady(ctx context.Context, log logger.Logger, name string, policy Policy, ping func(ctx context.Context) error) error {
	depLog := log.With(logger.NewField("dependency", name))

	attempt := 1
	r := backoff_adapter.New(retrier.Config{
		InitialInterval: policy.InitialInterval,
		MaxInterval:     policy.MaxInterval,
		MaxElapsedTime:  policy.MaxElapsedTime,
		Randomization:   0.5,
		Multiplier:      2,
		OnRetry: func(err error, wait time.Duration) {
			depLog.With(
				logger.NewField("attempt", attempt),
				logger.NewField("retry_in", wait.String()),
				logger.NewField("error", err),
			).Warn("dependency not ready")
			attempt++
		},
	})

	if err := r.ExecuteWithContext(ctx, ping); err != nil {
		depLog.With(
			logger.NewField("attempts", attempt),
			logger.NewField("error", err),
		).Error("dependency unavailable")
		return fmt.Errorf("%s unavailable after %d attempts: %w", name, attempt, err)
	}

	depLog.With(logger.NewField("attempts", attempt)).Info("dependency ready")
	return nil
}
