// Package observability bundles the ambient operational concerns: structured
// JSON logging over stdlib slog, Prometheus metrics, dependency health
// probes, and graceful shutdown orchestration.
package observability
