package relay

import (
	"context"
	"fmt"
	"sync"
)

// LocalBus шина внутри одного процесса: Publish синхронно вызывает всех подписчиков.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func([]byte)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		handlers: make(map[int]func([]byte)),
	}
}

func (b *LocalBus) Publish(_ context.Context, frame []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, handle := range b.handlers {
		handle(frame)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, handle func([]byte)) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handle
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
	return nil
}

func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers)
}

// RedisBus шина поверх Redis PUBLISH/SUBSCRIBE, доставка at-most-once.
type RedisBus struct {
	client  redisClient
	channel string
}

func NewRedisBus(client redisClient, channel string) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
	}
}

func (b *RedisBus) Publish(ctx context.Context, frame []byte) error {
	if err := b.client.Publish(ctx, b.channel, frame).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, handle func([]byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// дожидаемся подтверждения подписки, иначе ошибки соединения всплывут только в канале
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}
			handle([]byte(msg.Payload))
		}
	}
}
