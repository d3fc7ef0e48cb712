//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"dispatch/internal/handlers/kafka-consumer/order_status_changed"
	"dispatch/internal/handlers/tasks/broadcast_expiry"
	"dispatch/internal/handlers/tasks/dispatch_retry"
	"dispatch/internal/pkg/config"
	"dispatch/internal/pkg/firebase"
	"dispatch/internal/pkg/mailer"
	completionService "dispatch/internal/service/completion"
	courierService "dispatch/internal/service/courier"
	dispatchService "dispatch/internal/service/dispatch"
	orderService "dispatch/internal/service/order"
	"dispatch/pkg/logger"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

var storageSet = wire.NewSet(
	provideTxManager,
	provideQuerier,
	provideOrderRepository,
	provideAssignmentRepository,
	provideUserRepository,
	provideLocationStore,
)

var dispatchSet = wire.NewSet(
	provideDispatchRetrier,
	provideDispatchService,
	provideStatusHandlerFactory,
	provideOrderService,
)

// InitializeApplication для HTTP сервиса (cmd/service)
func InitializeApplication(
	ctx context.Context,
	log logger.Logger,
	pool *pgxpool.Pool,
	getter *pgxv5.CtxGetter,
	redisClient *goredis.Client,
	verifier *firebase.Verifier,
	mail *mailer.Mailer,
	cfg *config.Config,
) (*Application, error) {
	wire.Build(
		storageSet,

		provideHub,
		provideRelayBus,
		provideRelay,

		dispatchSet,
		provideCompletionService,
		provideLocationLimiter,
		provideCourierService,
		provideAuthenticator,

		provideBroadcastExpiryInterval,
		provideDispatchRetryInterval,
		provideBroadcastExpiryTask,
		provideDispatchRetryTask,
		provideTaskList,
		provideBackgroundWorkers,

		wire.Struct(new(Application), "*"),

		wire.Bind(new(ServiceOrder), new(*orderService.Service)),
		wire.Bind(new(ServiceDispatch), new(*dispatchService.Service)),
		wire.Bind(new(ServiceCompletion), new(*completionService.Service)),
		wire.Bind(new(ServiceCourier), new(*courierService.Courier)),
		wire.Bind(new(broadcast_expiry.Service), new(*dispatchService.Service)),
		wire.Bind(new(dispatch_retry.Service), new(*dispatchService.Service)),
	)
	return &Application{}, nil
}

// InitializeKafkaWorkerApp для Kafka воркера (cmd/worker-order-status-changed)
func InitializeKafkaWorkerApp(
	ctx context.Context,
	log logger.Logger,
	pool *pgxpool.Pool,
	getter *pgxv5.CtxGetter,
	redisClient *goredis.Client,
	cfg *config.Config,
) (*KafkaWorkerApp, error) {
	wire.Build(
		storageSet,
		provideWorkerRelay,
		dispatchSet,

		wire.Struct(new(KafkaWorkerApp), "*"),

		wire.Bind(new(order_status_changed.Service), new(*orderService.Service)),
	)
	return nil, nil
}
