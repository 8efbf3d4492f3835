package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is read by the limiter and moved by the test.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// keysByHeader names clients by a "name:secret" api_key header, accepting
// only the secret "s3cret".
func keysByHeader(r *http.Request) (string, bool) {
	name, secret, ok := strings.Cut(r.Header.Get("api_key"), ":")
	if !ok || secret != "s3cret" {
		return "", false
	}
	return name, true
}

type limited struct {
	h     http.Handler
	calls int
}

func newLimited(cfg RateLimitConfig, clock *fakeClock) *limited {
	l := &limited{}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		l.calls++
		w.WriteHeader(http.StatusOK)
	})
	l.h = newLimiter(cfg, clock.now).middleware(next)
	return l
}

func (l *limited) get(target, ip, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = ip + ":41000"
	if key != "" {
		req.Header.Set("api_key", key)
	}
	w := httptest.NewRecorder()
	l.h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_SpentBudget(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	l := newLimited(RateLimitConfig{Max: 2, Window: time.Minute}, clock)

	w := l.get("/api/insights/dashboard", "10.1.0.7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = l.get("/api/insights/earnings?sellerId=3", "10.1.0.7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = l.get("/api/insights/inventory", "10.1.0.7", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, w.Body.String())
	assert.Equal(t, 2, l.calls, "denied requests stop at the limiter")

	// Half a window refills one of two tokens.
	clock.advance(31 * time.Second)
	w = l.get("/api/insights/inventory", "10.1.0.7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_BudgetPerKeyName(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	l := newLimited(RateLimitConfig{
		Max:      1,
		KeyMax:   3,
		Window:   time.Minute,
		Identify: keysByHeader,
	}, clock)

	// Named keys share one office address but not a budget.
	for range 3 {
		w := l.get("/api/insights/top-customers", "10.1.0.7", "dashboard:s3cret")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusTooManyRequests,
		l.get("/api/insights/top-customers", "10.1.0.8", "dashboard:s3cret").Code,
		"the budget follows the key across addresses")
	assert.Equal(t, http.StatusOK, l.get("/api/insights/top-customers", "10.1.0.7", "reports:s3cret").Code)

	// The address itself still has its anonymous budget.
	w := l.get("/api/insights/top-customers", "10.1.0.7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_UnknownKeysShareAddressBudget(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	l := newLimited(RateLimitConfig{Max: 2, KeyMax: 100, Window: time.Minute, Identify: keysByHeader}, clock)

	assert.Equal(t, http.StatusOK, l.get("/api/insights/dashboard", "203.0.113.9", "a:guess").Code)
	assert.Equal(t, http.StatusOK, l.get("/api/insights/dashboard", "203.0.113.9", "b:guess").Code)

	w := l.get("/api/insights/dashboard", "203.0.113.9", "c:guess")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_ForwardedAddress(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	l := newLimited(RateLimitConfig{Max: 1, Window: time.Minute}, clock)

	send := func(remote, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/insights/earnings", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		l.h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", "198.51.100.4, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.2:1000", "198.51.100.4"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", "198.51.100.5"))
}

func TestRateLimit_Evict(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute}, clock.now)

	_, _, ok := l.take("ip:10.1.0.7", 1, clock.now())
	require.True(t, ok)
	clock.advance(10 * time.Second)
	_, _, ok = l.take("ip:10.1.0.9", 1, clock.now())
	require.True(t, ok)

	clock.advance(50 * time.Second)
	l.evict(clock.now())
	assert.NotContains(t, l.clients, "ip:10.1.0.7")
	assert.Contains(t, l.clients, "ip:10.1.0.9")
}

func TestRateLimit_ServesAfterContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mw := RateLimit(ctx, RateLimitConfig{Max: 1, Window: time.Millisecond})
	cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/insights/dashboard", nil)
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
