package dispatch_retry

import (
	"context"
	"time"

	"dispatch/pkg/logger"
)

type Service interface {
	RetryUndispatched(ctx context.Context) (int64, error)
}

// DispatchRetry повторяет рассылку заказам в доставке, для которых курьеров не нашлось.
type DispatchRetry struct {
	log      logger.Logger
	service  Service
	interval time.Duration
}

func NewDispatchRetry(log logger.Logger, service Service, interval time.Duration) *DispatchRetry {
	return &DispatchRetry{
		log:      log,
		service:  service,
		interval: interval,
	}
}

func (d *DispatchRetry) TTL() time.Duration {
	return d.interval
}

func (d *DispatchRetry) Do(ctx context.Context) error {
	dispatched, err := d.service.RetryUndispatched(ctx)

	if dispatched > 0 {
		d.log.With(
			logger.NewField("dispatched_orders", dispatched),
		).Info("dispatch retry")
	}

	return err
}

func (d *DispatchRetry) Info() string {
	return "dispatch retry"
}
