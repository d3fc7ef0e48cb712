package broadcast_expiry

import (
	"context"
	"time"

	"dispatch/pkg/logger"
)

type Service interface {
	ExpireStaleBroadcasts(ctx context.Context) (int64, error)
}

// BroadcastExpiry закрывает рассылки, которые никто не принял за отведённое время.
type BroadcastExpiry struct {
	log      logger.Logger
	service  Service
	interval time.Duration
}

func NewBroadcastExpiry(log logger.Logger, service Service, interval time.Duration) *BroadcastExpiry {
	return &BroadcastExpiry{
		log:      log,
		service:  service,
		interval: interval,
	}
}

func (b *BroadcastExpiry) TTL() time.Duration {
	return b.interval
}

func (b *BroadcastExpiry) Do(ctx context.Context) error {
	expired, err := b.service.ExpireStaleBroadcasts(ctx)

	if expired > 0 {
		b.log.With(
			logger.NewField("expired_broadcasts", expired),
		).Info("broadcast expiry")
	}

	return err
}

func (b *BroadcastExpiry) Info() string {
	return "broadcast expiry"
}
