package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a cleanup hook run during graceful shutdown
type ShutdownFunc func(context.Context) error

// ShutdownManager drains the HTTP server and runs registered cleanup hooks
// when the process receives SIGINT or SIGTERM.
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	funcs   []ShutdownFunc
	timeout time.Duration
	mu      sync.Mutex
}

// NewShutdownManager creates a manager for the given server.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{logger: logger, server: server, timeout: timeout}
}

// Register adds a cleanup hook to run after the server has drained.
func (sm *ShutdownManager) Register(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.funcs = append(sm.funcs, fn)
}

// WaitForShutdown blocks until a termination signal arrives, then drains
// the server and runs the hooks under a shared deadline.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	sm.logger.Infof("received signal %s, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("http server shutdown error")
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	sm.mu.Lock()
	funcs := sm.funcs
	sm.mu.Unlock()

	var firstErr error
	for _, fn := range funcs {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
			sm.logger.WithError(err).Error("shutdown hook failed")
		}
	}

	sm.logger.Info("shutdown complete")
	return firstErr
}
