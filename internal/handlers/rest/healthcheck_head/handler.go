package healthcheck_head

import (
	"net/http"
	"strconv"
	"sync/atomic"
)

const connectionsHeader = "X-Relay-Connections"

// Connections число живых realtime соединений процесса.
type Connections interface {
	Len() int
}

type Handler struct {
	isShuttingDown *atomic.Bool
	connections    Connections
}

func New(isShuttingDown *atomic.Bool, connections Connections) *Handler {
	return &Handler{
		isShuttingDown: isShuttingDown,
		connections:    connections,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.connections != nil {
		w.Header().Set(connectionsHeader, strconv.Itoa(h.connections.Len()))
	}

	if h.isShuttingDown.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
