package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"dispatch/pkg/logger"
)

type wireFrame struct {
	To      Audience        `json:"to"`
	Event   string          `json:"event"`
	Message json.RawMessage `json:"message"`
}

// Relay публикует типизированные сообщения в шину и раздаёт пришедшие из шины кадры локальному Hub.
type Relay struct {
	hub *Hub
	bus Bus
	log relayLogger
}

func New(hub *Hub, bus Bus, log relayLogger) *Relay {
	return &Relay{
		hub: hub,
		bus: bus,
		log: log,
	}
}

func (r *Relay) Hub() *Hub {
	return r.hub
}

// Publish пустая аудитория не ошибка: сообщение просто некому отдавать.
func (r *Relay) Publish(ctx context.Context, to Audience, msg Message) error {
	if to.Empty() {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Event, err)
	}

	frame, err := json.Marshal(wireFrame{To: to, Event: msg.Event, Message: payload})
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", msg.Event, err)
	}

	if err := r.bus.Publish(ctx, frame); err != nil {
		MessagesTotal.WithLabelValues(msg.Event, "bus_error").Inc()
		return fmt.Errorf("publish %s: %w", msg.Event, err)
	}
	return nil
}

// Run читает шину до отмены ctx.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("realtime relay started")
	defer r.log.Info("realtime relay stopped")

	return r.bus.Subscribe(ctx, r.deliver)
}

func (r *Relay) deliver(raw []byte) {
	var frame wireFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.log.Warn("malformed relay frame", logger.NewField("error", err))
		MessagesTotal.WithLabelValues("unknown", "malformed").Inc()
		return
	}

	delivered, dropped := r.hub.Deliver(frame.To, frame.Message)
	if delivered > 0 {
		MessagesTotal.WithLabelValues(frame.Event, "delivered").Add(float64(delivered))
	}
	if dropped > 0 {
		MessagesTotal.WithLabelValues(frame.Event, "dropped").Add(float64(dropped))
		r.log.Warn("relay message dropped on slow connections",
			logger.NewField("event", frame.Event),
			logger.NewField("dropped", dropped),
		)
	}
}
