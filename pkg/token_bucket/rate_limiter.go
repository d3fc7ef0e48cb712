package token_bucket

import (
	"sync"
	"time"
)

// TokenBucket классическое ведро: capacity задаёт всплеск, refillRate пополнение в секунду.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
	lastSeen   time.Time
}

func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	now := time.Now()
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now,
		lastSeen:   now,
	}
}

func (t *TokenBucket) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allowAt(time.Now())
}

// allowAt вызывается под t.mu.
func (t *TokenBucket) allowAt(now time.Time) bool {
	t.lastSeen = now

	if elapsed := now.Sub(t.lastRefill).Seconds(); elapsed > 0 {
		t.tokens = min(t.capacity, t.tokens+elapsed*t.refillRate)
		t.lastRefill = now
	}

	if t.tokens < 1 {
		return false
	}
	t.tokens--
	return true
}

func (t *TokenBucket) idleSince(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return now.Sub(t.lastSeen)
}

// Keyed отдельное ведро на каждый ключ: клиента HTTP или курьера.
// Ведра без обращений дольше idleTTL удаляются.
type Keyed struct {
	capacity   int
	refillRate float64
	idleTTL    time.Duration

	mu        sync.Mutex
	buckets   map[string]*TokenBucket
	lastSweep time.Time
}

func NewKeyed(capacity int, refillRate float64, idleTTL time.Duration) *Keyed {
	return &Keyed{
		capacity:   capacity,
		refillRate: refillRate,
		idleTTL:    idleTTL,
		buckets:    make(map[string]*TokenBucket),
		lastSweep:  time.Now(),
	}
}

func (k *Keyed) AllowKey(key string) bool {
	now := time.Now()

	k.mu.Lock()
	k.sweep(now)
	bucket, ok := k.buckets[key]
	if !ok {
		bucket = NewTokenBucket(k.capacity, k.refillRate)
		k.buckets[key] = bucket
	}
	k.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	return bucket.allowAt(now)
}

// Len количество отслеживаемых ключей.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// sweep вызывается под k.mu.
func (k *Keyed) sweep(now time.Time) {
	if k.idleTTL <= 0 || now.Sub(k.lastSweep) < k.idleTTL {
		return
	}
	for key, bucket := range k.buckets {
		if bucket.idleSince(now) >= k.idleTTL {
			delete(k.buckets, key)
		}
	}
	k.lastSweep = now
}
