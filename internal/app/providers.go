package app

import (
	"context"
	"time"

	"dispatch/internal/handlers/tasks/broadcast_expiry"
	"dispatch/internal/handlers/tasks/dispatch_retry"
	"dispatch/internal/pkg/config"
	"dispatch/internal/pkg/factory/order_handle"
	"dispatch/internal/pkg/firebase"
	"dispatch/internal/pkg/mailer"
	"dispatch/internal/pkg/middlewares/auth"
	"dispatch/internal/relay"
	assignmentRepo "dispatch/internal/repository/assignment"
	locationRepo "dispatch/internal/repository/location"
	orderRepo "dispatch/internal/repository/order"
	userRepo "dispatch/internal/repository/user"
	completionService "dispatch/internal/service/completion"
	courierService "dispatch/internal/service/courier"
	dispatchService "dispatch/internal/service/dispatch"
	orderService "dispatch/internal/service/order"
	"dispatch/pkg/background"
	"dispatch/pkg/logger"
	"dispatch/pkg/otp"
	"dispatch/pkg/querier"
	"dispatch/pkg/retrier"
	"dispatch/pkg/retrier/backoff_adapter"
	"dispatch/pkg/token_bucket"
	"dispatch/pkg/tx"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

const (
	deliveryCodeDigits = 4

	// ведро курьера, не присылавшего координаты дольше, забывается
	locationLimiterIdleTTL = 10 * time.Minute
)

type (
	BroadcastExpiryInterval time.Duration
	DispatchRetryInterval   time.Duration
)

func provideTxManager(pool *pgxpool.Pool) *tx.Manager {
	return tx.New(pool)
}

func provideQuerier(pool *pgxpool.Pool, getter *pgxv5.CtxGetter) *querier.Querier {
	return querier.New(pool, getter)
}

func provideOrderRepository(querier *querier.Querier) *orderRepo.Repository {
	return orderRepo.New(querier)
}

func provideAssignmentRepository(querier *querier.Querier) *assignmentRepo.Repository {
	return assignmentRepo.New(querier)
}

func provideUserRepository(querier *querier.Querier) *userRepo.Repository {
	return userRepo.New(querier)
}

func provideLocationStore(client *goredis.Client, cfg *config.Config) *locationRepo.Store {
	return locationRepo.New(client, cfg.Location.MaxAge)
}

func provideHub(cfg *config.Config) *relay.Hub {
	return relay.NewHub(cfg.Relay.MaxConnections)
}

func provideRelayBus(cfg *config.Config, client *goredis.Client) relay.Bus {
	if cfg.Relay.Bus == config.RelayBusRedis {
		return relay.NewRedisBus(client, cfg.Relay.RedisChannel)
	}
	return relay.NewLocalBus()
}

func provideRelay(log logger.Logger, hub *relay.Hub, bus relay.Bus) *relay.Relay {
	return relay.New(hub, bus, log)
}

// provideWorkerRelay без локальных соединений: Run не запускается, кадры уходят в Redis.
// config.LoadWorker не пускает воркер с локальной шиной.
func provideWorkerRelay(log logger.Logger, client *goredis.Client, cfg *config.Config) *relay.Relay {
	return relay.New(relay.NewHub(0), relay.NewRedisBus(client, cfg.Relay.RedisChannel), log)
}

// provideDispatchRetrier повторяет только конфликты транзакций при принятии и отказе.
func provideDispatchRetrier() *backoff_adapter.Retrier {
	return backoff_adapter.New(retrier.Config{
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Randomization:   0.5,
		Multiplier:      2,
		ShouldRetry:     retrier.RetryOn(dispatchService.ErrConcurrentUpdate),
	})
}

func provideDispatchService(
	orders *orderRepo.Repository,
	assignments *assignmentRepo.Repository,
	locations *locationRepo.Store,
	users *userRepo.Repository,
	publisher *relay.Relay,
	txManager *tx.Manager,
	retrier *backoff_adapter.Retrier,
	log logger.Logger,
	cfg *config.Config,
) *dispatchService.Service {
	return dispatchService.New(
		orders,
		assignments,
		locations,
		users,
		publisher,
		txManager,
		retrier,
		log.With(logger.NewField("service", "dispatch")),
		dispatchService.Config{
			SearchRadiusKm: cfg.Dispatch.SearchRadiusKm,
			MaxCandidates:  cfg.Dispatch.MaxCandidates,
			BroadcastTTL:   cfg.Dispatch.BroadcastTTL,
			SweepBatch:     uint64(cfg.Dispatch.SweepBatch),
		},
	)
}

func provideStatusHandlerFactory(dispatcher *dispatchService.Service) *order_handle.StatusHandlerFactory {
	return order_handle.NewStatusHandlerFactory(dispatcher)
}

func provideOrderService(
	orders *orderRepo.Repository,
	publisher *relay.Relay,
	handlerFactory *order_handle.StatusHandlerFactory,
	txManager *tx.Manager,
	log logger.Logger,
) *orderService.Service {
	return orderService.New(
		orders,
		publisher,
		handlerFactory,
		txManager,
		log.With(logger.NewField("service", "order")),
	)
}

func provideCompletionService(
	orders *orderRepo.Repository,
	assignments *assignmentRepo.Repository,
	users *userRepo.Repository,
	mail *mailer.Mailer,
	publisher *relay.Relay,
	txManager *tx.Manager,
	log logger.Logger,
	cfg *config.Config,
) *completionService.Service {
	return completionService.New(
		orders,
		assignments,
		users,
		mail,
		otp.New(deliveryCodeDigits),
		publisher,
		txManager,
		log.With(logger.NewField("service", "completion")),
		completionService.Policy{
			CodeTTL:     cfg.Verification.CodeTTL,
			MaxAttempts: cfg.Verification.MaxAttempts,
		},
	)
}

func provideLocationLimiter(cfg *config.Config) *token_bucket.Keyed {
	return token_bucket.NewKeyed(cfg.Location.RateLimitBurst, cfg.Location.RateLimitPerSecond, locationLimiterIdleTTL)
}

func provideCourierService(
	locations *locationRepo.Store,
	orders *orderRepo.Repository,
	assignments *assignmentRepo.Repository,
	publisher *relay.Relay,
	limiter *token_bucket.Keyed,
	log logger.Logger,
) *courierService.Courier {
	return courierService.New(
		locations,
		orders,
		assignments,
		publisher,
		limiter,
		log.With(logger.NewField("service", "courier")),
	)
}

func provideAuthenticator(log logger.Logger, verifier *firebase.Verifier) *auth.Authenticator {
	return auth.New(log, verifier)
}

func provideBroadcastExpiryInterval(cfg *config.Config) BroadcastExpiryInterval {
	return BroadcastExpiryInterval(cfg.Tasks.BroadcastExpiryInterval)
}

func provideDispatchRetryInterval(cfg *config.Config) DispatchRetryInterval {
	return DispatchRetryInterval(cfg.Tasks.DispatchRetryInterval)
}

func provideBroadcastExpiryTask(
	log logger.Logger,
	service broadcast_expiry.Service,
	interval BroadcastExpiryInterval,
) *broadcast_expiry.BroadcastExpiry {
	return broadcast_expiry.NewBroadcastExpiry(log, service, time.Duration(interval))
}

func provideDispatchRetryTask(
	log logger.Logger,
	service dispatch_retry.Service,
	interval DispatchRetryInterval,
) *dispatch_retry.DispatchRetry {
	return dispatch_retry.NewDispatchRetry(log, service, time.Duration(interval))
}

func provideTaskList(
	broadcastExpiryTask *broadcast_expiry.BroadcastExpiry,
	dispatchRetryTask *dispatch_retry.DispatchRetry,
) []background.Task {
	return []background.Task{
		broadcastExpiryTask,
		dispatchRetryTask,
	}
}

func provideBackgroundWorkers(ctx context.Context, log logger.Logger, tasks []background.Task) (*background.Worker, error) {
	return background.New(ctx, log, tasks)
}
