package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long an unused per-username limiter is retained.
const idleTTL = 30 * time.Minute

// maxTrackedKeys bounds the number of usernames tracked at once.
const maxTrackedKeys = 10000

// LoginLimiter throttles login attempts per username using a token bucket
// per key. It is safe for concurrent use.
type LoginLimiter struct {
	limit rate.Limit
	burst   int
	maxKeys int
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	lastGC   time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perMinute attempts per username with the given
// burst. A non-positive perMinute returns nil, which disables limiting.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &LoginLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		maxKeys:  maxTrackedKeys,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// Allow consumes one attempt for username. It returns ErrTooManyRequests
// once the bucket is empty. A nil limiter allows everything.
func (l *LoginLimiter) Allow(username string) error {
	if l == nil {
		return nil
	}

	key := strings.ToLower(username)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.collect(now)

	e, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.maxKeys {
			l.evict(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now

	if !e.limiter.AllowN(now, 1) {
		return ErrTooManyRequests
	}
	return nil
}

// Reset forgets the attempts recorded for username, typically after a
// successful login.
func (l *LoginLimiter) Reset(username string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.limiters, strings.ToLower(username))
	l.mu.Unlock()
}

// collect drops idle limiters at most once per idleTTL.
// Must be called with l.mu held.
func (l *LoginLimiter) collect(now time.Time) {
	if now.Sub(l.lastGC) < idleTTL {
		return
	}
	l.lastGC = now
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) >= idleTTL {
			delete(l.limiters, k)
		}
	}
}

// evict makes room for a new key. Limiters whose bucket has refilled
// carry no state and go first; if none have, the least recently seen
// limiter is dropped. Must be called with l.mu held.
func (l *LoginLimiter) evict(now time.Time) {
	for k, e := range l.limiters {
		if e.limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, k)
		}
	}
	if len(l.limiters) < l.maxKeys {
		return
	}

	var oldest string
	var oldestSeen time.Time
	for k, e := range l.limiters {
		if oldest == "" || e.lastSeen.Before(oldestSeen) {
			oldest, oldestSeen = k, e.lastSeen
		}
	}
	delete(l.limiters, oldest)
}
