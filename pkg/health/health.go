// Package health serves liveness and readiness probes.
//
// Every registered check runs on its own ticker. A check flips to unhealthy
// after FailureThreshold consecutive failures and back after
// SuccessThreshold consecutive successes, so a single slow ping does not take
// the instance out of rotation.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// Probe selects the endpoint a check contributes to.
type Probe int

const (
	Liveness Probe = iota
	Readiness
)

// CheckFunc returns nil when the component is healthy.
type CheckFunc func(ctx context.Context) error

// Check describes a periodic health check.
type Check struct {
	Name    string
	Timeout time.Duration
	Func    CheckFunc
	// FailureThreshold defaults to 3.
	FailureThreshold int
	// SuccessThreshold defaults to 1.
	SuccessThreshold int
}

// state is the runtime state of one check. Only the check goroutine touches
// the counters; handlers read healthy and lastErr.
type state struct {
	Check

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	fails int
	oks   int
}

func (s *state) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Func(ctx); err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.oks = 0
		s.fails++
		if s.fails >= s.FailureThreshold {
			s.healthy.Store(false)
		}
		return
	}
	s.lastErr.Store(nil)
	s.fails = 0
	s.oks++
	if s.oks >= s.SuccessThreshold {
		s.healthy.Store(true)
	}
}

// status returns "ok" or the reason the check is unhealthy.
func (s *state) status() (string, bool) {
	if s.healthy.Load() {
		return "ok", true
	}
	if msg := s.lastErr.Load(); msg != nil {
		return *msg, false
	}
	return "unhealthy", false
}

// Health tracks the checks of one process.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks map[Probe][]*state
	cancel context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{checks: make(map[Probe][]*state)}
}

// Add registers c on probe p. Checks start healthy.
func (h *Health) Add(p Probe, c Check) {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	s := &state{Check: c}
	s.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[p] = append(h.checks[p], s)
}

// Start runs every registered check every interval until Stop or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	var all []*state
	for _, list := range h.checks {
		all = append(all, list...)
	}
	h.mu.Unlock()

	for _, s := range all {
		go loop(ctx, s, interval)
	}
}

func loop(ctx context.Context, s *state, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	s.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.run(ctx)
		}
	}
}

// Stop halts the check goroutines. It may be called more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness gate, used to drain before shutdown.
func (h *Health) SetReady(ready bool) { h.ready.Store(ready) }

// Handler serves the probe p. It answers 200 when every check of p is
// healthy and, for Readiness, the instance is marked ready; 503 otherwise.
func (h *Health) Handler(p Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.mu.RLock()
		checks := append([]*state(nil), h.checks[p]...)
		h.mu.RUnlock()

		ok := p != Readiness || h.ready.Load()

		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		e.ObjStart()
		e.FieldStart("checks")
		e.ObjStart()
		for _, s := range checks {
			msg, healthy := s.status()
			ok = ok && healthy
			e.FieldStart(s.Name)
			e.Str(msg)
		}
		if p == Readiness && !h.ready.Load() {
			e.FieldStart("ready")
			e.Str("service is not ready")
		}
		e.ObjEnd()
		e.FieldStart("status")
		if ok {
			e.Str("ok")
		} else {
			e.Str("unhealthy")
		}
		e.ObjEnd()

		w.Header().Set("Content-Type", "application/json")
		if ok {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(e.Bytes())
	}
}
