// Package health tracks the liveness and readiness of a kiosk process.
//
// Each registered check runs in its own goroutine at a fixed interval. A
// check flips to unhealthy only after failureThreshold consecutive failures
// and back to healthy after successThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Kind tells whether a check gates liveness or readiness.
type Kind string

const (
	Liveness  Kind = "liveness"
	Readiness Kind = "readiness"
)

// Option tunes a single check.
type Option func(*check)

// WithThresholds sets how many consecutive failures mark a check unhealthy
// and how many consecutive successes mark it healthy again.
func WithThresholds(failure, success int) Option {
	return func(c *check) {
		if failure > 0 {
			c.failureThreshold = failure
		}
		if success > 0 {
			c.successThreshold = success
		}
	}
}

// check is run from exactly one goroutine at a time; the counters are owned
// by run, healthy and lastErr are read concurrently by handlers.
type check struct {
	name             string
	kind             Kind
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	runMu   sync.Mutex
	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (c *check) run(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.consecutiveFails = 0
	c.consecutiveOK++
	if c.consecutiveOK >= c.successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) status() Status {
	s := Status{Name: c.name, Kind: c.kind, Healthy: c.healthy.Load()}
	if p := c.lastErr.Load(); p != nil {
		s.Err = *p
	}
	return s
}

// Status is a point-in-time view of one check.
type Status struct {
	Name    string
	Kind    Kind
	Healthy bool
	// Err is the result of the latest run, which may have failed without
	// crossing the failure threshold yet.
	Err error
}

// Health owns the registered checks.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Add registers a check. Checks start healthy.
func (h *Health) Add(kind Kind, name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	c := &check{
		name:             name,
		kind:             kind,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.healthy.Store(true)

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// AddLivenessCheck registers a liveness check.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	h.Add(Liveness, name, timeout, fn, opts...)
}

// AddReadinessCheck registers a readiness check.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	h.Add(Readiness, name, timeout, fn, opts...)
}

// Start runs every check immediately and then every interval until Stop or
// ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := h.snapshot("")
	h.mu.Unlock()

	for _, c := range checks {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			loop(ctx, c, interval)
		}()
	}
}

func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// RunOnce runs every check once, synchronously.
func (h *Health) RunOnce(ctx context.Context) {
	h.mu.RLock()
	checks := h.snapshot("")
	h.mu.RUnlock()

	for _, c := range checks {
		c.run(ctx)
	}
}

// Stop cancels the background checks and waits for running checks to
// return. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()

	h.wg.Wait()
}

// SetReady sets the manual readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the process is marked ready and every readiness
// check is healthy.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, s := range h.Report(Readiness) {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// Report returns the status of every check of kind, or of all checks when
// kind is empty, in registration order.
func (h *Health) Report(kind Kind) []Status {
	h.mu.RLock()
	checks := h.snapshot(kind)
	h.mu.RUnlock()

	out := make([]Status, len(checks))
	for i, c := range checks {
		out[i] = c.status()
	}
	return out
}

// snapshot must be called with h.mu held.
func (h *Health) snapshot(kind Kind) []*check {
	out := make([]*check, 0, len(h.checks))
	for _, c := range h.checks {
		if kind == "" || c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} when every liveness check
// is healthy, 503 with the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, failures(h.Report(Liveness)))
}

// ReadyEndpoint serves /readyz like LiveEndpoint, and also fails while the
// process is not marked ready.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.Report(Readiness))
	if !h.ready.Load() {
		failed = append(failed, failure{name: "_readiness", reason: "service is not ready"})
	}
	writeResponse(w, failed)
}

type failure struct {
	name   string
	reason string
}

func failures(statuses []Status) []failure {
	var out []failure
	for _, s := range statuses {
		if s.Healthy {
			continue
		}
		reason := "check is unhealthy"
		if s.Err != nil {
			reason = s.Err.Error()
		}
		out = append(out, failure{name: s.Name, reason: reason})
	}
	return out
}

func writeResponse(w http.ResponseWriter, failed []failure) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	status := http.StatusOK
	if len(failed) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range failed {
			e.FieldStart(f.name)
			e.Str(f.reason)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; a write error means the client is gone.
	_, _ = w.Write(e.Bytes())
}
