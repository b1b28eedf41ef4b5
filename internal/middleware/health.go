package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	probeTimeout = 5 * time.Second
)

type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthStatus is the /healthz body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler runs every checker in parallel under one probe deadline and
// answers 503 if any fails.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			checks = make(map[string]CheckStatus, len(checkers))
		)
		for name, c := range checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				st := CheckStatus{Status: statusHealthy}
				if err := c.Check(ctx); err != nil {
					st = CheckStatus{Status: statusUnhealthy, Message: err.Error()}
				}
				mu.Lock()
				checks[name] = st
				mu.Unlock()
			}()
		}
		wg.Wait()

		out := HealthStatus{Status: statusHealthy, Timestamp: time.Now().UTC(), Checks: checks}
		for _, st := range checks {
			if st.Status == statusUnhealthy {
				out.Status = statusUnhealthy
				break
			}
		}
		writeProbe(w, out.Status == statusHealthy, out)
	}
}

// ReadinessHandler answers 200 while ready reports nil, 503 otherwise.
func ReadinessHandler(ready HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := ready.Check(r.Context())
		body := map[string]any{"status": "ready", "timestamp": time.Now().UTC()}
		if err != nil {
			body["status"] = "not ready"
			body["reason"] = err.Error()
		}
		writeProbe(w, err == nil, body)
	}
}

// LivenessHandler only proves the process serves HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeProbe(w http.ResponseWriter, ok bool, body any) {
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
