package health

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

// clock advances by one second on every reading.
type clock struct{ n atomic.Int64 }

func (c *clock) now() time.Time {
	return t0.Add(time.Duration(c.n.Add(1)-1) * time.Second)
}

type upstreamError struct{ code int }

func (e *upstreamError) Error() string   { return fmt.Sprintf("upstream status %d", e.code) }
func (e *upstreamError) HTTPStatus() int { return e.code }

// toggle is a check whose result is switched by the test.
type toggle struct {
	err   atomic.Pointer[error]
	calls atomic.Int32
}

func (t *toggle) set(err error) { t.err.Store(&err) }

func (t *toggle) check(context.Context) error {
	t.calls.Add(1)
	if p := t.err.Load(); p != nil {
		return *p
	}
	return nil
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestReadyEndpoint_UpstreamStatus(t *testing.T) {
	var c clock
	h := New(WithClock(c.now))
	backoffice, redis := &toggle{}, &toggle{}
	h.AddReadinessCheck("backoffice", time.Second, backoffice.check)
	h.AddReadinessCheck("redis", time.Second, redis.check)
	h.SetReady(true)

	backoffice.set(errors.Wrap(&upstreamError{code: http.StatusBadGateway}, "ping"))
	for range 3 {
		h.RunChecks(context.Background())
	}

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	st := h.Readiness()
	require.Contains(t, st, "backoffice")
	assert.False(t, st["backoffice"].Up)
	assert.Equal(t, http.StatusBadGateway, st["backoffice"].Upstream)
	assert.Equal(t, "ping: upstream status 502", st["backoffice"].Err)
	assert.True(t, st["redis"].Up)
	assert.Empty(t, st["redis"].Err)
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint_Body(t *testing.T) {
	h := New(WithClock(func() time.Time { return t0 }))
	postgres := &toggle{}
	h.AddReadinessCheck("postgres", time.Second, postgres.check)
	h.AddReadinessCheck("backoffice", time.Second, func(context.Context) error {
		return &upstreamError{code: http.StatusServiceUnavailable}
	})
	h.SetReady(true)
	for range 3 {
		h.RunChecks(context.Background())
	}

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{
		"status": "unhealthy",
		"checks": {
			"backoffice": {"up": false, "since": "2026-10-15T09:00:00Z", "checkedAt": "2026-10-15T09:00:00Z",
				"error": "upstream status 503", "upstreamStatus": 503},
			"postgres": {"up": true, "since": "2026-10-15T09:00:00Z", "checkedAt": "2026-10-15T09:00:00Z"}
		}
	}`, w.Body.String())
}

func TestReadyEndpoint_Draining(t *testing.T) {
	h := New()
	h.AddReadinessCheck("backoffice", time.Second, (&toggle{}).check)

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"draining"`)

	h.SetReady(true)
	w = serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestThresholds(t *testing.T) {
	for _, tt := range []struct {
		name      string
		opts      []Option
		downAfter int
		upAfter   int
	}{
		{name: "Default", downAfter: 3, upAfter: 1},
		{name: "Custom", opts: []Option{WithThresholds(2, 3)}, downAfter: 2, upAfter: 3},
		{name: "IgnoresZero", opts: []Option{WithThresholds(0, 0)}, downAfter: 3, upAfter: 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var c clock
			h := New(append(tt.opts, WithClock(c.now))...)
			redis := &toggle{}
			h.AddReadinessCheck("redis", time.Second, redis.check)
			ctx := context.Background()

			redis.set(errors.New("connection refused"))
			for range tt.downAfter - 1 {
				h.RunChecks(ctx)
			}
			st := h.Readiness()["redis"]
			assert.True(t, st.Up, "up below the failure threshold")
			assert.Equal(t, "connection refused", st.Err)

			h.RunChecks(ctx)
			down := h.Readiness()["redis"]
			assert.False(t, down.Up)
			assert.Equal(t, down.CheckedAt, down.Since)

			redis.set(nil)
			for range tt.upAfter - 1 {
				h.RunChecks(ctx)
			}
			assert.False(t, h.Readiness()["redis"].Up, "down below the success threshold")

			h.RunChecks(ctx)
			st = h.Readiness()["redis"]
			assert.True(t, st.Up)
			assert.Empty(t, st.Err)
			assert.Zero(t, st.Upstream)
			assert.True(t, st.Since.After(down.Since))
		})
	}
}

func TestRecoveredFailureClearsError(t *testing.T) {
	h := New()
	backoffice := &toggle{}
	h.AddReadinessCheck("backoffice", time.Second, backoffice.check)

	backoffice.set(&upstreamError{code: http.StatusTooManyRequests})
	h.RunChecks(context.Background())
	assert.Equal(t, http.StatusTooManyRequests, h.Readiness()["backoffice"].Upstream)

	backoffice.set(nil)
	h.RunChecks(context.Background())
	st := h.Readiness()["backoffice"]
	assert.True(t, st.Up)
	assert.Empty(t, st.Err)
	assert.Zero(t, st.Upstream)
}

func TestRunChecks_Timeout(t *testing.T) {
	h := New(WithThresholds(1, 1))
	h.AddReadinessCheck("postgres", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.RunChecks(context.Background())
	st := h.Readiness()["postgres"]
	assert.False(t, st.Up)
	assert.Equal(t, context.DeadlineExceeded.Error(), st.Err)
}

func TestLiveEndpoint(t *testing.T) {
	h := New(WithThresholds(1, 1))

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	// Liveness ignores the ready flag.
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(0))
	h.RunChecks(context.Background())

	w = serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds threshold")
}

func TestStartStop(t *testing.T) {
	h := New()
	redis := &toggle{}
	h.AddReadinessCheck("redis", time.Second, redis.check)

	h.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return redis.calls.Load() >= 2 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
	calls := redis.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, redis.calls.Load(), "no checks run after Stop")
}

func TestConcurrentReads(t *testing.T) {
	h := New()
	h.AddLivenessCheck("gc", time.Second, GCMaxPauseCheck(time.Hour))
	h.AddReadinessCheck("backoffice", time.Second, func(context.Context) error {
		return &upstreamError{code: http.StatusBadGateway}
	})
	h.SetReady(true)

	h.Start(context.Background(), time.Millisecond)
	defer h.Stop()

	done := make(chan struct{})
	for range 4 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 50 {
				h.IsReady()
				serve(h.LiveEndpoint)
				serve(h.ReadyEndpoint)
			}
		}()
	}
	for range 4 {
		<-done
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingCheck(t *testing.T) {
	ok := PingCheck(pingerFunc(func(context.Context) error { return nil }))
	require.NoError(t, ok(context.Background()))

	down := PingCheck(pingerFunc(func(context.Context) error { return &upstreamError{code: 500} }))
	err := down(context.Background())
	require.Error(t, err)
	assert.Equal(t, "ping: upstream status 500", err.Error())

	var sc StatusCoder
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, 500, sc.HTTPStatus())
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.ErrorContains(t, GoroutineCountCheck(0)(context.Background()), "exceeds threshold")
}
