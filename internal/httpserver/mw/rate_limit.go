package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/boxdpick/internal/utils"
)

type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int              // hard cap on tracked clients, 0 = unbounded
	SweepInterval     time.Duration    // default 1m
	IdleTTL           time.Duration    // default 15m
	TrustProxy        bool             // resolve IP from proxy headers when true
	Now               func() time.Time // clock, defaults to time.Now
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	limit     rate.Limit
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerIPPerMin < 1 {
		cfg.RefillPerIPPerMin = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		limit:     rate.Limit(float64(cfg.RefillPerIPPerMin) / 60.0),
		clients:   make(map[string]*client, 64),
		lastSweep: cfg.Now(),
	}
}

func (l *limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fullLocked() || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked(now)
	}

	c := l.clients[key]
	if c == nil {
		if l.fullLocked() {
			l.evictOldestLocked()
		}
		c = &client{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (l *limiter) fullLocked() bool {
	return l.cfg.MaxEntries > 0 && len(l.clients) >= l.cfg.MaxEntries
}

// evictOldestLocked drops the least recently seen client. The evicted client
// starts again with a full bucket.
func (l *limiter) evictOldestLocked() {
	var (
		oldest string
		seen   time.Time
	)
	for key, c := range l.clients {
		if oldest == "" || c.lastSeen.Before(seen) {
			oldest, seen = key, c.lastSeen
		}
	}
	delete(l.clients, oldest)
}

func (l *limiter) sweepLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// allow takes one token for key. When it fails, retryAfter is the wait in
// whole seconds until a token is available.
func (l *limiter) allow(key string, now time.Time) (ok bool, remaining, retryAfter int) {
	lim := l.get(key, now)
	if lim.AllowN(now, 1) {
		return true, max(int(lim.TokensAt(now)), 0), 0
	}
	missing := 1 - lim.TokensAt(now)
	return false, 0, max(int(math.Ceil(missing/float64(l.limit))), 1)
}

// RateLimit is a per-client-IP token bucket. Rejected requests get 429
// with Retry-After; accepted ones carry X-RateLimit-* headers.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)
			ok, remaining, retry := l.allow(key, l.cfg.Now())

			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
