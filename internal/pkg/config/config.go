package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RelayBusLocal = "local"
	RelayBusRedis = "redis"

	OffsetOldest = "oldest"
	OffsetNewest = "newest"
)

type (
	Tasks struct {
		BroadcastExpiryInterval time.Duration
		DispatchRetryInterval   time.Duration
	}

	HTTPServer struct {
		Port             string
		RequestTimeout   time.Duration // middleware timeout
		RateLimiterQPS   int           // пополнение ведра в секунду на клиента
		RateLimiterBurst int           // ёмкость ведра на клиента
		PprofEnabled     bool
		PprofPort        string
	}

	Database struct {
		Host           string
		Port           string
		User           string
		Password       string
		DBName         string
		SSLMode        string
		MigrationsAuto bool
		// 0 значит значение по умолчанию пула
		MaxConns int
		MinConns int
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Dispatch struct {
		SearchRadiusKm float64
		MaxCandidates  int
		// BroadcastTTL 0 отключает пересоздание зависших рассылок.
		BroadcastTTL time.Duration
		SweepBatch   int
	}

	// Verification нулевые значения отключают ограничения.
	Verification struct {
		CodeTTL     time.Duration
		MaxAttempts int
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
		TLS      bool
	}

	Auth struct {
		FirebaseProjectID       string
		FirebaseCredentialsFile string
	}

	Relay struct {
		Bus            string
		RedisChannel   string
		MaxConnections int
		SendBuffer     int
		WriteTimeout   time.Duration
		PingInterval   time.Duration
		// AllowedOrigins шаблоны Origin для браузерных клиентов; пусто значит только тот же хост.
		AllowedOrigins []string
	}

	Location struct {
		RateLimitPerSecond float64
		RateLimitBurst     int
		MaxAge             time.Duration
	}

	Kafka struct {
		PortHealthcheck string
		Brokers         []string
		Topic           string
		ConsumerGroup   string
		Sarama          Sarama
		Handlers        KafkaHandlers
	}

	Sarama struct {
		Version                   string
		ConsumerOffsetsAutocommit bool
		// InitialOffset oldest или newest, откуда читать новой группе
		InitialOffset string
	}

	KafkaHandlers struct {
		OrderStatusChanged OrderStatusChanged
	}

	OrderStatusChanged struct {
		ProcessTimeout time.Duration
	}

	Config struct {
		LogLevel     string
		Tasks        Tasks
		Server       HTTPServer
		Database     Database
		Redis        Redis
		Dispatch     Dispatch
		Verification Verification
		SMTP         SMTP
		Auth         Auth
		Relay        Relay
		Location     Location
		Kafka        Kafka
	}
)

func Load() (*Config, error) {
	cfg, err := loadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("environment loading: %w", err)
	}

	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return cfg, nil
}

// LoadWorker конфигурация Kafka воркера. Воркер публикует события только в Redis канал,
// поэтому шина relay обязана быть общей.
func LoadWorker() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.Relay.Bus != RelayBusRedis {
		return nil, fmt.Errorf("validation: RELAY_BUS must be %q for the order status worker, got %q",
			RelayBusRedis, cfg.Relay.Bus)
	}
	return cfg, nil
}

//nolint:funlen,gocyclo // плоский список переменных окружения
func loadFromEnv() (*Config, error) {
	expiryInterval, err := osGetEnvDuration("BACKGROUND_BROADCAST_EXPIRY_INTERVAL")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	retryInterval, err := osGetEnvDuration("BACKGROUND_DISPATCH_RETRY_INTERVAL")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	saramaOffsetsAutocommit, err := osGetBool("KAFKA_SARAMA_OFFSETS_AUTOCOMMIT")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	orderStatusChangedTimeout, err := osGetEnvDuration("KAFKA_HANDLER_ORDER_STATUS_CHANGED_PROCESS_TIMEOUT")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	requestTimeout, err := osGetEnvDuration("MIDDLEWARE_REQUEST_TIMEOUT")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	rateLimiterQPS, err := osGetInt("MIDDLEWARE_RATE_LIMIT_QPS")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	rateLimiterBurst, err := osGetInt("MIDDLEWARE_RATE_LIMIT_BURST")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pprofEnabled, err := osGetBool("PPROF_ENABLED")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	migrationsAuto, err := osGetBool("POSTGRES_MIGRATIONS_AUTO")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	maxConns, err := osGetInt("POSTGRES_MAX_CONNS")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	minConns, err := osGetInt("POSTGRES_MIN_CONNS")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	redisDB, err := osGetInt("REDIS_DB")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	searchRadius, err := osGetFloat("DISPATCH_SEARCH_RADIUS_KM")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	maxCandidates, err := osGetInt("DISPATCH_MAX_CANDIDATES")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	broadcastTTL, err := osGetEnvDuration("DISPATCH_BROADCAST_TTL")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	sweepBatch, err := osGetInt("DISPATCH_SWEEP_BATCH")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	codeTTL, err := osGetEnvDuration("VERIFICATION_CODE_TTL")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	maxAttempts, err := osGetInt("VERIFICATION_MAX_ATTEMPTS")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	smtpPort, err := osGetInt("SMTP_PORT")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	smtpTLS, err := osGetBool("SMTP_TLS")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	relayMaxConnections, err := osGetInt("RELAY_MAX_CONNECTIONS")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	relaySendBuffer, err := osGetInt("RELAY_SEND_BUFFER")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	relayWriteTimeout, err := osGetEnvDuration("RELAY_WRITE_TIMEOUT")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	relayPingInterval, err := osGetEnvDuration("RELAY_PING_INTERVAL")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	locationRate, err := osGetFloat("LOCATION_RATE_LIMIT_PER_SECOND")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	locationBurst, err := osGetInt("LOCATION_RATE_LIMIT_BURST")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	locationMaxAge, err := osGetEnvDuration("LOCATION_MAX_AGE")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &Config{
		LogLevel: os.Getenv("LOG_LEVEL"),
		Tasks: Tasks{
			BroadcastExpiryInterval: expiryInterval,
			DispatchRetryInterval:   retryInterval,
		},
		Server: HTTPServer{
			Port:             os.Getenv("PORT"),
			RequestTimeout:   requestTimeout,
			RateLimiterQPS:   rateLimiterQPS,
			RateLimiterBurst: rateLimiterBurst,
			PprofEnabled:     pprofEnabled,
			PprofPort:        os.Getenv("PPROF_PORT"),
		},
		Database: Database{
			Host:           os.Getenv("POSTGRES_HOST"),
			Port:           os.Getenv("POSTGRES_PORT"),
			User:           os.Getenv("POSTGRES_USER"),
			Password:       os.Getenv("POSTGRES_PASSWORD"),
			DBName:         os.Getenv("POSTGRES_DB"),
			SSLMode:        os.Getenv("POSTGRES_SSLMODE"),
			MigrationsAuto: migrationsAuto,
			MaxConns:       maxConns,
			MinConns:       minConns,
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Dispatch: Dispatch{
			SearchRadiusKm: searchRadius,
			MaxCandidates:  maxCandidates,
			BroadcastTTL:   broadcastTTL,
			SweepBatch:     sweepBatch,
		},
		Verification: Verification{
			CodeTTL:     codeTTL,
			MaxAttempts: maxAttempts,
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			TLS:      smtpTLS,
		},
		Auth: Auth{
			FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		},
		Relay: Relay{
			Bus:            os.Getenv("RELAY_BUS"),
			RedisChannel:   os.Getenv("RELAY_REDIS_CHANNEL"),
			MaxConnections: relayMaxConnections,
			SendBuffer:     relaySendBuffer,
			WriteTimeout:   relayWriteTimeout,
			PingInterval:   relayPingInterval,
			AllowedOrigins: osGetList("RELAY_ALLOWED_ORIGINS"),
		},
		Location: Location{
			RateLimitPerSecond: locationRate,
			RateLimitBurst:     locationBurst,
			MaxAge:             locationMaxAge,
		},
		Kafka: Kafka{
			Brokers:         osGetList("KAFKA_BROKERS"),
			Topic:           os.Getenv("KAFKA_TOPIC"),
			ConsumerGroup:   os.Getenv("KAFKA_CONSUMER_GROUP"),
			PortHealthcheck: os.Getenv("KAFKA_HTTP_HEALTHCHECK_PORT"),
			Sarama: Sarama{
				Version:                   os.Getenv("KAFKA_SARAMA_VERSION"),
				ConsumerOffsetsAutocommit: saramaOffsetsAutocommit,
				InitialOffset:             os.Getenv("KAFKA_SARAMA_INITIAL_OFFSET"),
			},
			Handlers: KafkaHandlers{
				OrderStatusChanged: OrderStatusChanged{
					ProcessTimeout: orderStatusChangedTimeout,
				},
			},
		},
	}, nil
}

// applyDefaults значения, без которых сервис работоспособен и которые редко меняют.
func applyDefaults(cfg *Config) {
	if cfg.Dispatch.SweepBatch == 0 {
		cfg.Dispatch.SweepBatch = 100
	}
	if cfg.Relay.Bus == "" {
		cfg.Relay.Bus = RelayBusLocal
	}
	if cfg.Relay.RedisChannel == "" {
		cfg.Relay.RedisChannel = "dispatch:relay"
	}
	if cfg.Relay.SendBuffer == 0 {
		cfg.Relay.SendBuffer = 32
	}
	if cfg.Relay.WriteTimeout == 0 {
		cfg.Relay.WriteTimeout = 5 * time.Second
	}
	if cfg.Relay.PingInterval == 0 {
		cfg.Relay.PingInterval = 30 * time.Second
	}
	if cfg.Location.RateLimitBurst == 0 {
		cfg.Location.RateLimitBurst = 5
	}
	if cfg.Location.RateLimitPerSecond == 0 {
		cfg.Location.RateLimitPerSecond = 1
	}
	if cfg.Kafka.Sarama.InitialOffset == "" {
		cfg.Kafka.Sarama.InitialOffset = OffsetOldest
	}
}

//nolint:gocyclo // последовательность независимых проверок
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server port is required (set via PORT env variable)")
	}
	if cfg.Server.RequestTimeout == time.Duration(0) {
		return errors.New("MIDDLEWARE_REQUEST_TIMEOUT is required")
	}
	if cfg.Server.RateLimiterQPS == 0 {
		return errors.New("MIDDLEWARE_RATE_LIMIT_QPS is required")
	}
	if cfg.Server.RateLimiterBurst == 0 {
		return errors.New("MIDDLEWARE_RATE_LIMIT_BURST is required")
	}
	if cfg.Server.PprofPort == "" && cfg.Server.PprofEnabled {
		return errors.New("PprofPort is required (set via PPROF_PORT env variable)")
	}

	if cfg.Database.Host == "" {
		return errors.New("POSTGRES_HOST is required")
	}
	if cfg.Database.Port == "" {
		return errors.New("POSTGRES_PORT is required")
	}
	if cfg.Database.User == "" {
		return errors.New("POSTGRES_USER is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("POSTGRES_PASSWORD is required")
	}
	if cfg.Database.DBName == "" {
		return errors.New("POSTGRES_DB is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("POSTGRES_SSLMODE is required")
	}
	if cfg.Database.MaxConns < 0 || cfg.Database.MinConns < 0 {
		return errors.New("POSTGRES_MAX_CONNS and POSTGRES_MIN_CONNS must not be negative")
	}
	if cfg.Database.MaxConns > math.MaxInt32 || cfg.Database.MinConns > math.MaxInt32 {
		return errors.New("POSTGRES_MAX_CONNS and POSTGRES_MIN_CONNS are too large")
	}

	if cfg.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required")
	}

	if cfg.Dispatch.SearchRadiusKm <= 0 {
		return errors.New("DISPATCH_SEARCH_RADIUS_KM must be positive")
	}
	if cfg.Dispatch.MaxCandidates <= 0 {
		return errors.New("DISPATCH_MAX_CANDIDATES must be positive")
	}
	if cfg.Dispatch.SweepBatch < 0 {
		return errors.New("DISPATCH_SWEEP_BATCH must not be negative")
	}
	if cfg.Verification.MaxAttempts < 0 {
		return errors.New("VERIFICATION_MAX_ATTEMPTS must not be negative")
	}

	if cfg.SMTP.Host == "" {
		return errors.New("SMTP_HOST is required")
	}
	if cfg.SMTP.Port == 0 {
		return errors.New("SMTP_PORT is required")
	}
	if cfg.SMTP.From == "" {
		return errors.New("SMTP_FROM is required")
	}

	if cfg.Auth.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}

	if cfg.Relay.Bus != RelayBusLocal && cfg.Relay.Bus != RelayBusRedis {
		return fmt.Errorf("RELAY_BUS must be %q or %q, got %q", RelayBusLocal, RelayBusRedis, cfg.Relay.Bus)
	}
	if cfg.Relay.MaxConnections < 0 {
		return errors.New("RELAY_MAX_CONNECTIONS must not be negative")
	}

	if cfg.Tasks.BroadcastExpiryInterval == time.Duration(0) {
		return errors.New("BACKGROUND_BROADCAST_EXPIRY_INTERVAL is required")
	}
	if cfg.Tasks.DispatchRetryInterval == time.Duration(0) {
		return errors.New("BACKGROUND_DISPATCH_RETRY_INTERVAL is required")
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if cfg.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	if cfg.Kafka.ConsumerGroup == "" {
		return errors.New("KAFKA_CONSUMER_GROUP is required")
	}
	if cfg.Kafka.PortHealthcheck == "" {
		return errors.New("KAFKA_HTTP_HEALTHCHECK_PORT is required")
	}

	if cfg.Kafka.Sarama.Version == "" {
		return errors.New("KAFKA_SARAMA_VERSION is required")
	}
	if cfg.Kafka.Sarama.InitialOffset != OffsetOldest && cfg.Kafka.Sarama.InitialOffset != OffsetNewest {
		return fmt.Errorf("KAFKA_SARAMA_INITIAL_OFFSET must be %q or %q, got %q",
			OffsetOldest, OffsetNewest, cfg.Kafka.Sarama.InitialOffset)
	}

	if cfg.Kafka.Handlers.OrderStatusChanged.ProcessTimeout == time.Duration(0) {
		return errors.New("KAFKA_HANDLER_ORDER_STATUS_CHANGED_PROCESS_TIMEOUT is required")
	}

	return nil
}

func osGetInt(s string) (int, error) {
	val := os.Getenv(s)
	if val == "" {
		return 0, nil
	}

	res, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid int format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetFloat(s string) (float64, error) {
	val := os.Getenv(s)
	if val == "" {
		return 0, nil
	}

	res, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetEnvDuration(s string) (time.Duration, error) {
	val := os.Getenv(s)
	if val == "" {
		return time.Duration(0), nil
	}

	res, err := time.ParseDuration(val)
	if err != nil {
		return time.Duration(0), fmt.Errorf("invalid duration format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetBool(s string) (bool, error) {
	val := os.Getenv(s)
	if val == "" {
		return false, nil
	}

	res, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid bool format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetList(s string) []string {
	val := os.Getenv(s)
	if val == "" {
		return nil
	}

	parts := strings.Split(val, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
