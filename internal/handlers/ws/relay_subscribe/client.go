package relay_subscribe

import "sync"

// client исходящая очередь одного websocket соединения.
type client struct {
	out       chan []byte
	displaced chan struct{}
	once      sync.Once
}

func newClient(buffer int) *client {
	return &client{
		out:       make(chan []byte, buffer),
		displaced: make(chan struct{}),
	}
}

func (c *client) Send(payload []byte) bool {
	select {
	case <-c.displaced:
		return false
	default:
	}

	select {
	case c.out <- payload:
		return true
	default:
		return false
	}
}

// displace закрывает соединение, вытесненное новым подключением той же identity.
func (c *client) displace() {
	c.once.Do(func() { close(c.displaced) })
}
