package relay_subscribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/pkg/middlewares/auth"
	"dispatch/internal/relay"
	"dispatch/internal/service/courier"
	"dispatch/pkg/logger"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

const readLimit = 4 << 10

var errDisplaced = errors.New("connection displaced")

type Options struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	OriginPatterns []string
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type locationData struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Handler struct {
	log       handlerLogger
	hub       Hub
	locations LocationService
	opts      Options
}

func New(log handlerLogger, hub Hub, locations LocationService, opts Options) *Handler {
	handlerLog := log.With(logger.NewField("transport", "websocket"))

	return &Handler{
		log:       handlerLog,
		hub:       hub,
		locations: locations,
		opts:      opts,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		h.log.With(
			logger.NewField("identity", identity.UID),
			logger.NewField("error", err),
		).Warn("websocket upgrade")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	log := h.log.With(
		logger.NewField("identity", identity.UID),
		logger.NewField("role", identity.Role.String()),
	)

	c := newClient(h.opts.SendBuffer)
	prev, err := h.hub.Bind(identity.UID, identity.Role, c)
	if err != nil {
		log.With(logger.NewField("error", err)).Warn("relay bind")
		_ = conn.Close(websocket.StatusTryAgainLater, "too many connections")
		return
	}
	if displaced, ok := prev.(*client); ok {
		displaced.displace()
	}
	defer h.hub.Unbind(identity.UID, c)

	log.Info("relay connection opened")

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return h.readLoop(ctx, conn, identity, log)
	})
	g.Go(func() error {
		return h.writeLoop(ctx, conn, c)
	})
	err = g.Wait()

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
		log.Info("relay connection closed")
	case errors.Is(err, errDisplaced):
		log.Info("relay connection replaced")
	case errors.Is(err, context.Canceled):
		log.Info("relay connection closed by server")
	default:
		log.With(logger.NewField("error", err)).Warn("relay connection lost")
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, identity entities.Identity, log logger.Logger) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.With(logger.NewField("error", err)).Debug("malformed client frame")
			continue
		}

		switch frame.Event {
		case relay.EventUpdateLocation:
			if identity.Role != entities.RoleCourier {
				continue
			}
			h.updateLocation(ctx, identity.UID, frame.Data, log)
		default:
			log.With(logger.NewField("event", frame.Event)).Debug("unsupported client event")
		}
	}
}

func (h *Handler) updateLocation(ctx context.Context, courierID string, raw json.RawMessage, log logger.Logger) {
	var data locationData
	if err := json.Unmarshal(raw, &data); err != nil || data.Latitude == nil || data.Longitude == nil {
		log.Debug("malformed location frame")
		return
	}

	point := entities.Point{Latitude: *data.Latitude, Longitude: *data.Longitude}
	err := h.locations.UpdateLocation(ctx, courierID, point)
	switch {
	case err == nil:
	case errors.Is(err, courier.ErrInvalidCoordinates),
		errors.Is(err, courier.ErrTooManyUpdates):
		log.With(logger.NewField("error", err)).Debug("location frame rejected")
	default:
		log.With(logger.NewField("error", err)).Warn("update location from websocket")
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) error {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.displaced:
			_ = conn.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
			return errDisplaced
		case payload := <-c.out:
			if err := h.write(ctx, conn, payload); err != nil {
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.opts.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.opts.WriteTimeout)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, payload)
}
