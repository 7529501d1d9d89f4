package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func probe(t *testing.T, h *Health, p Probe) (int, report) {
	t.Helper()
	w := httptest.NewRecorder()
	h.Handler(p)(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var r report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return w.Code, r
}

func runN(s *state, n int) {
	for range n {
		s.run(context.Background())
	}
}

func TestLiveness_Healthy(t *testing.T) {
	h := New()
	h.Add(Liveness, Check{Name: "goroutines", Func: GoroutineLimit(1 << 20)})

	code, r := probe(t, h, Liveness)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", r.Status)
	assert.Equal(t, map[string]string{"goroutines": "ok"}, r.Checks)
}

func TestThresholds(t *testing.T) {
	fail := true
	h := New()
	h.Add(Liveness, Check{Name: "db", Func: func(context.Context) error {
		if fail {
			return errors.New("connection refused")
		}
		return nil
	}, SuccessThreshold: 2})
	s := h.checks[Liveness][0]

	runN(s, 2)
	code, _ := probe(t, h, Liveness)
	assert.Equal(t, http.StatusOK, code, "below failure threshold")

	runN(s, 1)
	code, r := probe(t, h, Liveness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", r.Status)
	assert.Equal(t, "connection refused", r.Checks["db"])

	fail = false
	runN(s, 1)
	code, _ = probe(t, h, Liveness)
	assert.Equal(t, http.StatusServiceUnavailable, code, "below success threshold")

	runN(s, 1)
	code, _ = probe(t, h, Liveness)
	assert.Equal(t, http.StatusOK, code)
}

func TestReadiness_ManualGate(t *testing.T) {
	h := New()
	h.Add(Readiness, Check{Name: "postgres", Func: PingCheck(pingerFunc(func(context.Context) error { return nil }))})

	code, r := probe(t, h, Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", r.Checks["ready"])

	h.SetReady(true)
	code, r = probe(t, h, Readiness)
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, r.Checks, "ready")

	// Liveness ignores the readiness gate.
	h.SetReady(false)
	code, _ = probe(t, h, Liveness)
	assert.Equal(t, http.StatusOK, code)
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.Add(Readiness, Check{
		Name:             "slow",
		Timeout:          10 * time.Millisecond,
		FailureThreshold: 1,
		Func: PingCheck(pingerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	})
	h.SetReady(true)

	runN(h.checks[Readiness][0], 1)
	code, r := probe(t, h, Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, r.Checks["slow"], "deadline exceeded")
}

func TestStartStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := New()
	h.Add(Liveness, Check{Name: "tick", Func: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}})

	h.Start(context.Background(), time.Hour)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check did not run on start")
	}
	h.Stop()
	h.Stop()
}

func TestGoroutineLimit(t *testing.T) {
	require.Error(t, GoroutineLimit(0)(context.Background()))
}
