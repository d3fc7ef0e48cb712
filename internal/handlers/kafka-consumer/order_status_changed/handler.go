package order_status_changed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dispatch/internal/entities"
	orderservice "dispatch/internal/service/order"
	"dispatch/pkg/logger"

	"github.com/IBM/sarama"
)

// исходы обработки сообщения, они же значения метки outcome
const (
	outcomeProcessed = "processed"
	outcomeMalformed = "malformed"
	outcomeRejected  = "rejected"
	outcomeStale     = "stale"
	outcomeUnknown   = "unknown_order"
	outcomeFailed    = "failed"
	outcomeRetry     = "retry"
)

var errEmptyEvent = errors.New("empty event")

// statusChangedEvent сообщение топика: {"order_id": 42, "status": "out_for_delivery"}.
type statusChangedEvent struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

func decode(value []byte) (entities.OrderStatusEvent, error) {
	var event statusChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return entities.OrderStatusEvent{}, err
	}
	if event.OrderID == 0 && event.Status == "" {
		return entities.OrderStatusEvent{}, errEmptyEvent
	}
	return entities.OrderStatusEvent{
		OrderID: event.OrderID,
		Status:  entities.OrderStatusType(event.Status),
	}, nil
}

// Handler применяет внешние смены статуса заказа.
//
// Сообщение подтверждается при любом исходе, кроме отмены контекста:
// повтор невалидного или устаревшего события ничего не изменит.
type Handler struct {
	orderService Service
	log          handlerLogger
	timeout      time.Duration
}

func New(log handlerLogger, orderService Service, timeout time.Duration) *Handler {
	return &Handler{
		orderService: orderService,
		log:          log.With(logger.NewField("topic_handler", "order.status.changed")),
		timeout:      timeout,
	}
}

func (h *Handler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *Handler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *Handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			outcome := h.handle(sess.Context(), message)
			MessagesTotal.WithLabelValues(outcome).Inc()
			if outcome == outcomeRetry {
				// без коммита: после ребаланса сообщение будет прочитано снова
				return nil
			}
			sess.MarkMessage(message, "")

		case <-sess.Context().Done():
			return nil
		}
	}
}

func (h *Handler) handle(ctx context.Context, message *sarama.ConsumerMessage) string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	event, err := decode(message.Value)
	if err != nil {
		h.log.Error("bad order status message",
			logger.NewField("error", err),
			logger.NewField("partition", message.Partition),
			logger.NewField("offset", message.Offset),
		)
		return outcomeMalformed
	}

	fields := []logger.Field{
		logger.NewField("order", event.OrderID),
		logger.NewField("status", string(event.Status)),
		logger.NewField("partition", message.Partition),
		logger.NewField("offset", message.Offset),
	}

	order, err := h.orderService.ProcessOrderStatusChange(ctx, event)
	if err != nil {
		outcome := classify(err)
		fields = append(fields, logger.NewField("error", err), logger.NewField("outcome", outcome))
		switch outcome {
		case outcomeFailed:
			h.log.Error("order status event failed", fields...)
		case outcomeRetry:
			h.log.Warn("order status event interrupted, will be redelivered", fields...)
		default:
			h.log.Warn("order status event skipped", fields...)
		}
		return outcome
	}

	h.log.Info("order status event applied",
		append(fields, logger.NewField("current_status", order.Status.String()))...,
	)
	return outcomeProcessed
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeRetry
	case errors.Is(err, orderservice.ErrUndefinedStatus),
		errors.Is(err, orderservice.ErrInvalidOrderID),
		errors.Is(err, orderservice.ErrDeliveredByCode):
		return outcomeRejected
	case errors.Is(err, orderservice.ErrInvalidTransition),
		errors.Is(err, orderservice.ErrStatusConflict):
		return outcomeStale
	case errors.Is(err, orderservice.ErrOrderNotFound):
		return outcomeUnknown
	default:
		return outcomeFailed
	}
}
