// Package health serves liveness and readiness endpoints.
//
// Checks run together on every tick of a single scheduler. A check flips to
// down after a number of failures in a row (3 by default) and back up after a
// number of successes in a row (1 by default). The endpoints report the last
// observed state of every check, including the HTTP status the upstream
// answered with when the check error carries one.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc checks a dependency, returning nil when it is usable.
type CheckFunc func(ctx context.Context) error

// StatusCoder is implemented by errors that carry the HTTP status of an
// upstream answer.
type StatusCoder interface {
	HTTPStatus() int
}

// State is the last observed state of a check.
type State struct {
	Up bool
	// Err is the message of the last failed run, cleared by a success.
	Err string
	// Upstream is the HTTP status reported by the last failed run, 0 if none.
	Upstream int
	// Since is when Up last changed, or when the check was registered.
	Since     time.Time
	CheckedAt time.Time
}

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu    sync.Mutex
	state State
	fails int
	oks   int
}

func (c *check) snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *check) record(err error, now time.Time, failureThreshold, successThreshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.CheckedAt = now
	if err != nil {
		c.oks = 0
		c.fails++
		c.state.Err = err.Error()
		c.state.Upstream = 0
		var sc StatusCoder
		if errors.As(err, &sc) {
			c.state.Upstream = sc.HTTPStatus()
		}
		if c.state.Up && c.fails >= failureThreshold {
			c.state.Up = false
			c.state.Since = now
		}
		return
	}

	c.fails = 0
	c.oks++
	switch {
	case c.state.Up:
		c.state.Err, c.state.Upstream = "", 0
	case c.oks >= successThreshold:
		c.state = State{Up: true, Since: now, CheckedAt: now}
	}
}

// Option configures Health.
type Option func(*Health)

// WithThresholds sets how many failures in a row take a check down and how
// many successes in a row bring it back. Values below 1 are ignored.
func WithThresholds(failures, successes int) Option {
	return func(h *Health) {
		if failures > 0 {
			h.failureThreshold = failures
		}
		if successes > 0 {
			h.successThreshold = successes
		}
	}
}

// WithClock sets the clock used to stamp check states.
func WithClock(now func() time.Time) Option {
	return func(h *Health) { h.now = now }
}

// Health tracks liveness and readiness of the service.
type Health struct {
	ready atomic.Bool
	now   func() time.Time

	failureThreshold int
	successThreshold int

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a Health that is not ready until SetReady(true).
func New(opts ...Option) *Health {
	h := &Health{
		now:              time.Now,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Health) newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	// Checks are up until proven otherwise.
	return &check{
		name:    name,
		timeout: timeout,
		fn:      fn,
		state:   State{Up: true, Since: h.now()},
	}
}

// AddLivenessCheck registers a check of the process itself.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, h.newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a check of a dependency needed to serve
// requests, such as the snapshot source or the cache.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, h.newCheck(name, timeout, fn))
}

func (h *Health) checks() []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Concat(h.liveness, h.readiness)
}

// RunChecks runs every registered check once, concurrently.
func (h *Health) RunChecks(ctx context.Context) {
	var g errgroup.Group
	for _, c := range h.checks() {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			c.record(c.fn(checkCtx), h.now(), h.failureThreshold, h.successThreshold)
			return nil
		})
	}
	_ = g.Wait()
}

// Start runs the checks now and then on every interval until Stop is called
// or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	h.mu.Lock()
	h.cancel = cancel
	h.done = done
	h.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			h.RunChecks(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the scheduler and waits for the running checks to return. It is
// safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// SetReady marks the service ready or draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check is up.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, st := range h.Readiness() {
		if !st.Up {
			return false
		}
	}
	return true
}

// Readiness returns the state of every readiness check by name.
func (h *Health) Readiness() map[string]State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return states(h.readiness)
}

func states(checks []*check) map[string]State {
	out := make(map[string]State, len(checks))
	for _, c := range checks {
		out[c.name] = c.snapshot()
	}
	return out
}

// LiveEndpoint serves /livez: 200 when every liveness check is up, 503
// otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	st := states(h.liveness)
	h.mu.RUnlock()

	writeResponse(w, true, st)
}

// ReadyEndpoint serves /readyz: 200 when the service is marked ready and
// every readiness check is up, 503 otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, h.ready.Load(), h.Readiness())
}

func writeResponse(w http.ResponseWriter, ready bool, checks map[string]State) {
	up := ready
	for _, st := range checks {
		up = up && st.Up
	}

	status, code := "ok", http.StatusOK
	switch {
	case !ready:
		status, code = "draining", http.StatusServiceUnavailable
	case !up:
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	var e jx.Encoder
	encodeStatus(&e, status, checks)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func encodeStatus(e *jx.Encoder, status string, checks map[string]State) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	slices.Sort(names)

	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if len(names) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { encodeState(e, checks[name]) })
				}
			})
		})
	})
}

func encodeState(e *jx.Encoder, st State) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("up", func(e *jx.Encoder) { e.Bool(st.Up) })
		e.Field("since", func(e *jx.Encoder) { e.Str(st.Since.UTC().Format(time.RFC3339)) })
		if !st.CheckedAt.IsZero() {
			e.Field("checkedAt", func(e *jx.Encoder) { e.Str(st.CheckedAt.UTC().Format(time.RFC3339)) })
		}
		if st.Err != "" {
			e.Field("error", func(e *jx.Encoder) { e.Str(st.Err) })
		}
		if st.Upstream != 0 {
			e.Field("upstreamStatus", func(e *jx.Encoder) { e.Int(st.Upstream) })
		}
	})
}
