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
)

// Decision is the outcome of Limiter.Take.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is the end of the current window.
	Reset time.Time
}

type counter struct {
	start time.Time
	prev  int
	curr  int
}

// Limiter is a per-key sliding window counter. The previous window is
// weighted by how much of it still overlaps the sliding window.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	keys map[string]*counter
}

// NewLimiter allows limit hits per window for each key.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		max:    limit,
		window: window,
		now:    time.Now,
		keys:   make(map[string]*counter),
	}
}

// Take records a hit for key unless it would exceed the limit.
func (l *Limiter) Take(key string) Decision {
	now := l.now()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.keys[key]
	switch {
	case !ok:
		c = &counter{start: start}
		l.keys[key] = c
	case c.start.Equal(start):
	case c.start.Add(l.window).Equal(start):
		c.prev, c.curr, c.start = c.curr, 0, start
	default:
		c.prev, c.curr, c.start = 0, 0, start
	}

	weight := 1 - float64(now.Sub(start))/float64(l.window)
	estimate := float64(c.prev)*weight + float64(c.curr)

	d := Decision{Limit: l.max, Reset: start.Add(l.window)}
	if estimate+1 > float64(l.max) {
		return d
	}
	c.curr++
	d.Allowed = true
	d.Remaining = max(0, int(math.Floor(float64(l.max)-estimate-1)))
	return d
}

// Sweep forgets keys idle for two windows and returns how many were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, c := range l.keys {
		if c.start.Before(cutoff) {
			delete(l.keys, k)
			n++
		}
	}
	return n
}

// Run sweeps idle keys every two windows until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	t := time.NewTicker(2 * l.window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// KeyFunc extracts the rate limit key of a request.
type KeyFunc func(*http.Request) string

// RateLimit rejects requests over the limit of l with 429. Every response
// carries the X-RateLimit-* headers. A nil key limits by ClientIP.
func RateLimit(l *Limiter, key KeyFunc) Middleware {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Take(key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
			if !d.Allowed {
				wait := max(0, d.Reset.Sub(l.now()))
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "TooManyRequests", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the host of
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
