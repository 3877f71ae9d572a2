// Package maintenance runs the periodic catalog upkeep passes in-process.
// The passes run under a system identity, never through the token-gated
// surface, so a scheduler misconfiguration can't be escalated into a
// permission bypass over HTTP.
package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/wtag-io/wtag/pkg/observability"
)

// Catalog is the subset of the image catalog the scheduler drives.
type Catalog interface {
	RegenerateAllThumbnails(ctx context.Context) error
	DeduplicateAll(ctx context.Context) (bool, error)
}

// Scheduler periodically regenerates thumbnails and repairs duplicate
// records on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	catalog Catalog
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewScheduler creates a scheduler running both maintenance passes on the
// given cron expression.
func NewScheduler(spec string, catalog Catalog, logger *observability.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("maintenance scheduler started")
}

// Stop waits for any in-flight pass to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()

	if err := s.catalog.RegenerateAllThumbnails(ctx); err != nil {
		s.logger.WithError(err).Error("thumbnail maintenance failed")
	}

	removed, err := s.catalog.DeduplicateAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("dedup maintenance failed")
		return
	}
	if removed && s.metrics != nil {
		s.metrics.DuplicatesRemovedTotal.Inc()
	}
}

// RunNow executes one maintenance cycle immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runOnce()
}
