package ping_get

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"dispatch/internal/dto"
	"dispatch/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	pingTimeout = 2 * time.Second

	statusOK   = "ok"
	statusDown = "down"
)

type Handler struct {
	log          handlerLogger
	dependencies map[string]Pinger
}

// New dependencies по имени: postgres, redis. Любая недоступная даёт 503.
func New(log handlerLogger, dependencies map[string]Pinger) *Handler {
	handlerLog := log.With()

	return &Handler{
		log:          handlerLog,
		dependencies: dependencies,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	statuses := make(map[string]string, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	for _, name := range names {
		pinger := h.dependencies[name]
		g.Go(func() error {
			status := statusOK
			if err := pinger.Ping(gCtx); err != nil {
				status = statusDown
				h.log.With(
					logger.NewField("dependency", name),
					logger.NewField("error", err),
				).Warn("dependency ping failed")
			}

			mu.Lock()
			statuses[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	for _, status := range statuses {
		if status != statusOK {
			code = http.StatusServiceUnavailable
		}
	}

	res := dto.PingResponse{
		Message:      "pong",
		Dependencies: statuses,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(res)
	if err != nil {
		h.log.With(
			logger.NewField("error", err),
		).Error("encode JSON response")
	}
}
