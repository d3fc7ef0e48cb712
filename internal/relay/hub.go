package relay

import (
	"errors"
	"sync"

	"dispatch/internal/entities"
)

var ErrTooManyConnections = errors.New("too many realtime connections")

// Conn исходящая сторона соединения клиента. Send не блокирует:
// false означает, что буфер полон и сообщение потеряно.
type Conn interface {
	Send(payload []byte) bool
}

type binding struct {
	conn Conn
	role entities.UserRoleType
}

// Hub таблица identity -> соединение. Одно соединение на identity, последнее подключение побеждает.
type Hub struct {
	mu             sync.RWMutex
	bindings       map[string]binding
	maxConnections int
}

func NewHub(maxConnections int) *Hub {
	return &Hub{
		bindings:       make(map[string]binding),
		maxConnections: maxConnections,
	}
}

// Bind привязывает conn к identity и возвращает вытесненное соединение, если оно было.
func (h *Hub) Bind(identity string, role entities.UserRoleType, conn Conn) (Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, exists := h.bindings[identity]
	if !exists && h.maxConnections > 0 && len(h.bindings) >= h.maxConnections {
		return nil, ErrTooManyConnections
	}

	h.bindings[identity] = binding{conn: conn, role: role}
	ConnectionsActive.Set(float64(len(h.bindings)))

	if exists && prev.conn != conn {
		return prev.conn, nil
	}
	return nil, nil
}

// Unbind удаляет привязку, только если identity всё ещё указывает на conn.
func (h *Hub) Unbind(identity string, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.bindings[identity]
	if !ok || current.conn != conn {
		return false
	}

	delete(h.bindings, identity)
	ConnectionsActive.Set(float64(len(h.bindings)))
	return true
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.bindings)
}

// Deliver отправляет payload всем подключённым адресатам. Не подключённые пропускаются молча.
func (h *Hub) Deliver(to Audience, payload []byte) (delivered, dropped int) {
	h.mu.RLock()
	targets := h.resolve(to)
	h.mu.RUnlock()

	for _, conn := range targets {
		if conn.Send(payload) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

func (h *Hub) resolve(to Audience) []Conn {
	if to.Everyone || len(to.Roles) > 0 {
		targets := make([]Conn, 0, len(h.bindings))
		for identity, b := range h.bindings {
			if to.matches(identity, b.role) {
				targets = append(targets, b.conn)
			}
		}
		return targets
	}

	targets := make([]Conn, 0, len(to.Identities))
	seen := make(map[string]struct{}, len(to.Identities))
	for _, identity := range to.Identities {
		if _, dup := seen[identity]; dup {
			continue
		}
		seen[identity] = struct{}{}

		if b, ok := h.bindings[identity]; ok {
			targets = append(targets, b.conn)
		}
	}
	return targets
}
