package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // localhost-only ${PPROF_PORT}
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	application "dispatch/internal/app"
	"dispatch/internal/entities"
	"dispatch/internal/handlers/rest/assignment_accept_post"
	"dispatch/internal/handlers/rest/assignment_decline_post"
	"dispatch/internal/handlers/rest/assignments_get"
	"dispatch/internal/handlers/rest/courier_location_put"
	"dispatch/internal/handlers/rest/courier_orders_get"
	"dispatch/internal/handlers/rest/courier_stats_get"
	"dispatch/internal/handlers/rest/delivery_code_post"
	"dispatch/internal/handlers/rest/delivery_code_verify_post"
	"dispatch/internal/handlers/rest/healthcheck_head"
	"dispatch/internal/handlers/rest/order_status_put"
	"dispatch/internal/handlers/rest/ping_get"
	"dispatch/internal/handlers/ws/relay_subscribe"
	"dispatch/internal/pkg/config"
	"dispatch/internal/pkg/dotenv"
	"dispatch/internal/pkg/firebase"
	"dispatch/internal/pkg/mailer"
	metrics_system "dispatch/internal/pkg/metrics"
	"dispatch/internal/pkg/middlewares/graceful_shutdown"
	"dispatch/internal/pkg/middlewares/metrics"
	"dispatch/internal/pkg/middlewares/rate_limiter"
	"dispatch/internal/pkg/middlewares/timeout"
	"dispatch/internal/pkg/migrations"
	"dispatch/internal/pkg/postgres"
	"dispatch/internal/pkg/redis"
	"dispatch/pkg/logger"
	"dispatch/pkg/logger/zap_adapter"
	"dispatch/pkg/token_bucket"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

// ведро клиента, молчавшего дольше, удаляется
const rateLimiterIdleTTL = 10 * time.Minute

func main() {
	if err := dotenv.Load(".env.local", ".env"); err != nil {
		stdlog.Fatalf("failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}

	zapLogger, err := zap_adapter.NewZapAdapter(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := zapLogger.Sync(); err != nil {
			stdlog.Printf("failed to sync logger: %v", err)
		}
	}()

	var appLogger logger.Logger = zapLogger
	mainLog := appLogger.With()

	mainLog.Info("starting dispatch application")

	err = run(context.Background(), cfg, appLogger)
	if err != nil {
		mainLog.Error("application failed", logger.NewField("error", err))
		return
	}
}

// infra внешние зависимости процесса, закрываются в обратном порядке.
type infra struct {
	pool     *pgxpool.Pool
	redis    *goredis.Client
	verifier *firebase.Verifier
	mail     *mailer.Mailer
}

func openInfra(ctx context.Context, cfg *config.Config, log logger.Logger) (*infra, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	pool, err := postgres.NewConnPool(ctx, log, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	closers = append(closers, pool.Close)

	if cfg.Database.MigrationsAuto {
		if err := migrations.Up(ctx, pool); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied")
	}

	redisClient, err := redis.NewClient(ctx, log, &cfg.Redis)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	closers = append(closers, func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", logger.NewField("error", err))
		}
	})

	verifier, err := firebase.NewVerifier(ctx, &cfg.Auth)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("firebase: %w", err)
	}

	mail, err := mailer.New(&cfg.SMTP)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("mailer: %w", err)
	}

	return &infra{pool: pool, redis: redisClient, verifier: verifier, mail: mail}, closeAll, nil
}

//nolint:contextcheck // shutdownCtx и ongoingCtx намеренно от context.Background()
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	const (
		shutdownPeriod      = 15 * time.Second
		shutdownHardPeriod  = 3 * time.Second
		readinessDrainDelay = 5 * time.Second
	)

	var isShuttingDown atomic.Bool

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runLog := log.With()

	deps, closeInfra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeInfra()

	businessApp, err := application.InitializeApplication(
		ctx, log, deps.pool, pgxv5.DefaultCtxGetter, deps.redis, deps.verifier, deps.mail, cfg,
	)
	if err != nil {
		return fmt.Errorf("business logic: %w", err)
	}

	relayErr := make(chan error, 1)
	go func() {
		defer close(relayErr)
		if err := businessApp.Relay.Run(ctx); err != nil && ctx.Err() == nil {
			relayErr <- err
		}
	}()

	metrics_system.StartSystemMetricsCollector(ctx, 0)

	// ongoingCtx живёт дольше ctx: in-flight запросы и websocket сессии
	// отменяются только после Shutdown.
	// https://victoriametrics.com/blog/go-graceful-shutdown/#b-use-basecontext-to-provide-a-global-context-to-all-connections
	ongoingCtx, stopOngoingGracefully := context.WithCancel(context.Background())
	defer stopOngoingGracefully()
	baseContext := func(_ net.Listener) context.Context { return ongoingCtx }

	dependencies := map[string]ping_get.Pinger{
		"postgres": deps.pool,
		"redis":    redis.NewPinger(deps.redis),
	}

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           initRouter(ongoingCtx, log, &isShuttingDown, businessApp, dependencies, cfg),
		BaseContext:       baseContext,
		ReadHeaderTimeout: 5 * time.Second, // Slowloris DoS gosec G112
		ReadTimeout:       15 * time.Second,
		// без WriteTimeout: websocket живёт дольше любого ответа, запросы ограничены timeout middleware
		IdleTimeout: 60 * time.Second,
	}}
	if cfg.Server.PprofEnabled {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.PprofPort),
			Handler:           initPprofRouter(&isShuttingDown),
			BaseContext:       baseContext,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		})
	}

	serverErr := make(chan error, len(servers))
	for _, server := range servers {
		go func() {
			if err := <-serve(runLog, server); err != nil {
				serverErr <- fmt.Errorf("server %s: %w", server.Addr, err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		runLog.Info("shutdown signal received")
	case err := <-serverErr:
		return err
	case err := <-relayErr:
		return fmt.Errorf("relay: %w", err)
	}

	stop()
	isShuttingDown.Store(true)

	time.Sleep(readinessDrainDelay)
	runLog.Info("draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()

	forced := false
	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			runLog.Error("server shutdown error",
				logger.NewField("addr", server.Addr),
				logger.NewField("error", err),
			)
			forced = true
		}
	}

	// Shutdown не ждёт hijacked соединений: websocket клиенты закрываются через ongoingCtx
	stopOngoingGracefully()
	if forced {
		runLog.Info("graceful shutdown timeout, forcing close")
		time.Sleep(shutdownHardPeriod)
	}

	businessApp.BackgroundWorkers.Wait()
	runLog.Info("server stopped")
	return nil
}

func serve(log logger.Logger, server *http.Server) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info("server starting", logger.NewField("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func initRouter(
	ongoingCtx context.Context,
	log logger.Logger,
	isShuttingDown *atomic.Bool,
	app *application.Application,
	dependencies map[string]ping_get.Pinger,
	cfg *config.Config,
) http.Handler {
	router := mux.NewRouter()

	router.Use(graceful_shutdown.Middleware(isShuttingDown, ongoingCtx))

	router.Use(timeout.Middleware(cfg.Server.RequestTimeout))
	router.Use(metrics.Middleware(log))
	router.Use(rate_limiter.Middleware(log, cfg.Server.RateLimiterQPS,
		token_bucket.NewKeyed(cfg.Server.RateLimiterBurst, float64(cfg.Server.RateLimiterQPS), rateLimiterIdleTTL)))
	router.Handle("/metrics", promhttp.Handler())

	router.Handle("/healthcheck", healthcheck_head.New(isShuttingDown, app.Relay.Hub())).Methods("HEAD")
	router.Handle("/ping", ping_get.New(log, dependencies)).Methods("GET")

	admin := app.Authenticator.Require(entities.RoleAdmin)
	courier := app.Authenticator.Require(entities.RoleCourier)
	staff := app.Authenticator.Require(entities.RoleCourier, entities.RoleAdmin)
	anyone := app.Authenticator.Require()

	router.Handle("/orders/{id:[0-9]+}/status", admin(order_status_put.New(log, app.ServiceOrder))).Methods("PUT")
	router.Handle("/orders/{id:[0-9]+}/delivery-code", staff(delivery_code_post.New(log, app.ServiceCompletion))).Methods("POST")
	router.Handle("/orders/{id:[0-9]+}/delivery-code/verify", staff(delivery_code_verify_post.New(log, app.ServiceCompletion))).Methods("POST")

	router.Handle("/assignments", courier(assignments_get.New(log, app.ServiceDispatch))).Methods("GET")
	router.Handle("/assignments/{id:[0-9]+}/accept", courier(assignment_accept_post.New(log, app.ServiceDispatch))).Methods("POST")
	router.Handle("/assignments/{id:[0-9]+}/decline", courier(assignment_decline_post.New(log, app.ServiceDispatch))).Methods("POST")

	router.Handle("/couriers/me/location", courier(courier_location_put.New(log, app.ServiceCourier))).Methods("PUT")
	router.Handle("/couriers/me/orders", courier(courier_orders_get.New(log, app.ServiceCourier))).Methods("GET")
	router.Handle("/couriers/me/stats", courier(courier_stats_get.New(log, app.ServiceCourier))).Methods("GET")

	router.Handle("/ws", anyone(relay_subscribe.New(log, app.Relay.Hub(), app.ServiceCourier, relay_subscribe.Options{
		SendBuffer:     cfg.Relay.SendBuffer,
		WriteTimeout:   cfg.Relay.WriteTimeout,
		PingInterval:   cfg.Relay.PingInterval,
		OriginPatterns: cfg.Relay.AllowedOrigins,
	}))).Methods("GET")

	return router
}

func initPprofRouter(isShuttingDown *atomic.Bool) http.Handler {
	router := mux.NewRouter()

	router.Handle("/healthcheck", healthcheck_head.New(isShuttingDown, nil)).Methods("HEAD")
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return router
}
