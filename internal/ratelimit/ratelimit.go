package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter controls how frequently a caller may perform an action,
// keyed by an identifier such as a username or email.
type Limiter interface {
	Allow(key string) bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryLimiter tracks attempt rates per key with expiration of idle
// entries.
type memoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryLimiter constructs a per-key limiter that allows up to max
// attempts per window. Idle entries are dropped after twice the
// window.
func NewMemoryLimiter(window time.Duration, max int) Limiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		ttl:      2 * window,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	for k, existing := range l.visitors {
		if now.Sub(existing.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}

	return v.limiter.Allow()
}
