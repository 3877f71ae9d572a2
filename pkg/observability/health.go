package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything whose reachability the health probe reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface
type PingFunc func(ctx context.Context) error

// Ping calls the wrapped function
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker probes named dependencies and serves the /healthz endpoint.
type HealthChecker struct {
	deps map[string]Pinger
}

// NewHealthChecker creates a checker over the named dependencies.
func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps}
}

// DependencyStatus reports one dependency's reachability
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthStatus is the overall probe result
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Check pings every dependency with a shared deadline.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyStatus),
	}

	for name, dep := range h.deps {
		start := time.Now()
		ds := DependencyStatus{Status: StatusHealthy}
		if err := dep.Ping(ctx); err != nil {
			ds.Status = StatusUnhealthy
			ds.Message = err.Error()
			status.Status = StatusUnhealthy
		}
		ds.Latency = time.Since(start).String()
		status.Dependencies[name] = ds
	}
	return status
}

// Handler serves the readiness probe: 200 when every dependency answers,
// 503 otherwise.
func (h *HealthChecker) Handler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}
