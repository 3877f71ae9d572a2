package maintenance

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtag-io/wtag/pkg/observability"
)

type fakeCatalog struct {
	thumbCalls int
	dedupCalls int
	thumbErr   error
	removed    bool
}

func (f *fakeCatalog) RegenerateAllThumbnails(ctx context.Context) error {
	f.thumbCalls++
	return f.thumbErr
}

func (f *fakeCatalog) DeduplicateAll(ctx context.Context) (bool, error) {
	f.dedupCalls++
	return f.removed, nil
}

func newTestLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("not a cron spec", &fakeCatalog{}, newTestLogger(), nil)
	assert.Error(t, err)
}

func TestRunNowExecutesBothPasses(t *testing.T) {
	catalog := &fakeCatalog{removed: true}
	s, err := NewScheduler("@hourly", catalog, newTestLogger(), nil)
	require.NoError(t, err)

	s.RunNow()
	assert.Equal(t, 1, catalog.thumbCalls)
	assert.Equal(t, 1, catalog.dedupCalls)
}

func TestThumbnailFailureDoesNotSkipDedup(t *testing.T) {
	catalog := &fakeCatalog{thumbErr: errors.New("blob store down")}
	s, err := NewScheduler("@hourly", catalog, newTestLogger(), nil)
	require.NoError(t, err)

	s.RunNow()
	assert.Equal(t, 1, catalog.thumbCalls)
	assert.Equal(t, 1, catalog.dedupCalls)
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler("@hourly", &fakeCatalog{}, newTestLogger(), nil)
	require.NoError(t, err)

	s.Start()
	assert.NoError(t, s.Stop(context.Background()))
}
