package kafka

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"dispatch/internal/pkg/config"
	"dispatch/internal/pkg/dependency"
	"dispatch/pkg/logger"

	"github.com/IBM/sarama"
)

var startupPolicy = dependency.Policy{
	InitialInterval: time.Second,
	MaxInterval:     30 * time.Second,
	MaxElapsedTime:  2 * time.Minute,
}

type Consumer struct {
	log     logger.Logger
	client  sarama.ConsumerGroup
	topics  []string
	handler sarama.ConsumerGroupHandler
}

func NewSaramaConfig(cfg *config.Sarama) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()

	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("parse kafka version %q: %w", cfg.Version, err)
	}
	saramaCfg.Version = version

	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	if cfg.InitialOffset == config.OffsetNewest {
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = cfg.ConsumerOffsetsAutocommit
	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		sarama.NewBalanceStrategyRoundRobin(),
	}
	saramaCfg.Consumer.Return.Errors = true

	return saramaCfg, nil
}

// NewConsumer группа cfg.ConsumerGroup на топике cfg.Topic. Возвращается только после того,
// как брокеры ответили на запрос метаданных.
func NewConsumer(ctx context.Context, log logger.Logger, cfg *config.Kafka, handler sarama.ConsumerGroupHandler) (*Consumer, error) {
	saramaConfig, err := NewSaramaConfig(&cfg.Sarama)
	if err != nil {
		return nil, fmt.Errorf("build saramaConfig: %w", err)
	}

	kafkaLog := log.With(
		logger.NewField("brokers", cfg.Brokers),
		logger.NewField("group", cfg.ConsumerGroup),
		logger.NewField("topic", cfg.Topic),
	)

	err = dependency.WaitReady(ctx, kafkaLog, "kafka", startupPolicy, func(ctx context.Context) error {
		return checkTopic(kafkaLog, cfg.Brokers, cfg.Topic, saramaConfig)
	})
	if err != nil {
		return nil, fmt.Errorf("kafka connection: %w", err)
	}

	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Consumer{
		log:     kafkaLog,
		client:  client,
		topics:  []string{cfg.Topic},
		handler: handler,
	}, nil
}

// Start читает топик до отмены ctx или закрытия группы (блокирующий вызов).
// Consume возвращается на каждой ребалансировке, поэтому вызывается в цикле.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("Kafka consumer starting")

	go c.logErrors(ctx)

	for {
		err := c.client.Consume(ctx, c.topics, c.handler)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return err
			}
			c.log.With(
				logger.NewField("error", err),
			).Error("Error from consumer")
			return fmt.Errorf("consumer error: %w", err)
		}

		if ctx.Err() != nil {
			c.log.Info("Context cancelled, stopping consumer")
			return ctx.Err()
		}

		c.log.Debug("consumer group rebalanced")
	}
}

func (c *Consumer) Close() error {
	return c.client.Close()
}

// logErrors ошибки фоновых сессий группы (коммит offset, heartbeat) приходят только в канал.
func (c *Consumer) logErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.client.Errors():
			if !ok {
				return
			}
			c.log.With(logger.NewField("error", err)).Warn("consumer group error")
		}
	}
}

// checkTopic отсутствие топика не ошибка: он может создаться при первой публикации.
func checkTopic(log logger.Logger, brokers []string, topic string, cfg *sarama.Config) error {
	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close Kafka connection",
				logger.NewField("error", err),
			)
		}
	}()

	topics, err := client.Topics()
	if err != nil {
		return err
	}
	if !slices.Contains(topics, topic) {
		log.Warn("topic does not exist yet")
	}
	return nil
}
