package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client request budgets. A budget of n
// requests per Window is a token bucket holding n tokens and refilling
// completely over one Window.
type RateLimitConfig struct {
	// Max is the budget of anonymous clients, keyed by client IP.
	Max int
	// Window is the period a budget refills over.
	Window time.Duration
	// KeyMax is the budget of clients named by Identify. Zero means Max.
	KeyMax int
	// Identify names the API client of r, such as the name of its API key.
	// Requests it does not name, including those with an unknown key, are
	// limited per IP, so made-up keys never mint fresh budgets.
	Identify func(r *http.Request) (string, bool)
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

type limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

func newLimiter(cfg RateLimitConfig, now func() time.Time) *limiter {
	if cfg.KeyMax == 0 {
		cfg.KeyMax = cfg.Max
	}
	return &limiter{cfg: cfg, now: now, clients: make(map[string]*client)}
}

// key returns the bucket key and budget of r.
func (l *limiter) key(r *http.Request) (string, int) {
	if l.cfg.Identify != nil {
		if name, ok := l.cfg.Identify(r); ok {
			return "key:" + name, l.cfg.KeyMax
		}
	}
	return "ip:" + clientIP(r), l.cfg.Max
}

// take spends one token of key. It returns the tokens left and, when the
// request is denied, how long until a token is available.
func (l *limiter) take(key string, budget int, now time.Time) (left int, wait time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.clients[key]
	if !found {
		every := l.cfg.Window / time.Duration(budget)
		c = &client{lim: rate.NewLimiter(rate.Every(every), budget)}
		l.clients[key] = c
	}
	c.seen = now

	if c.lim.AllowN(now, 1) {
		return int(math.Max(0, c.lim.TokensAt(now))), 0, true
	}
	missing := 1 - c.lim.TokensAt(now)
	wait = time.Duration(missing / float64(c.lim.Limit()) * float64(time.Second))
	return 0, wait, false
}

// evict drops clients idle for a whole Window. Their buckets are full again,
// so a fresh bucket is equivalent.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.clients {
		if now.Sub(c.seen) >= l.cfg.Window {
			delete(l.clients, key)
		}
	}
}

func (l *limiter) runEviction(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict(l.now())
		}
	}
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, budget := l.key(r)
		left, wait, ok := l.take(key, budget, l.now())

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(budget))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))

		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits requests per client, answering 429 with Retry-After when
// a budget is spent. Idle clients are evicted until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg, time.Now)
	go l.runEviction(ctx)
	return l.middleware
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
