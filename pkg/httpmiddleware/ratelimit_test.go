package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limit int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(limit, time.Minute)
	l.now = clock.now
	return l, clock
}

func takeN(l *Limiter, key string, n int) (allowed int) {
	for range n {
		if l.Take(key).Allowed {
			allowed++
		}
	}
	return allowed
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l, clock := newTestLimiter(10)

	assert.Equal(t, 10, takeN(l, "a", 12))

	// Halfway through the next window half of the previous count still applies.
	clock.t = clock.t.Add(90 * time.Second)
	assert.Equal(t, 5, takeN(l, "a", 10))

	// Two windows later the history is gone.
	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, 10, takeN(l, "a", 10))
}

func TestLimiter_Remaining(t *testing.T) {
	l, _ := newTestLimiter(3)

	d := l.Take("a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC), d.Reset)

	l.Take("a")
	d = l.Take("a")
	assert.True(t, d.Allowed)
	assert.Zero(t, d.Remaining)

	d = l.Take("a")
	assert.False(t, d.Allowed)
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(1)
	l.Take("a")
	clock.t = clock.t.Add(2 * time.Minute)
	l.Take("b")

	clock.t = clock.t.Add(30 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Contains(t, l.keys, "b")
}

func TestRateLimit_Rejects(t *testing.T) {
	l, _ := newTestLimiter(2)
	h := RateLimit(l, nil)(okHandler())

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1111"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TooManyRequests", body["type"])
	assert.Equal(t, "rate limit exceeded", body["error"])

	// Another client has its own budget.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1111"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_CustomKey(t *testing.T) {
	l, _ := newTestLimiter(1)
	h := RateLimit(l, func(r *http.Request) string { return r.Header.Get("Authorization") })(okHandler())

	codes := make([]int, 0, 3)
	for _, auth := range []string{"a", "a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded first hop", header: map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, remote: "10.0.0.1:1", want: "203.0.113.50"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "10.0.0.1:1", want: "198.51.100.7"},
		{name: "remote addr", remote: "192.0.2.1:4444", want: "192.0.2.1"},
		{name: "remote without port", remote: "192.0.2.1", want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
