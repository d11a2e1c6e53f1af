package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/propmatch/PropMatch/app/dto"
	businessflow "github.com/propmatch/PropMatch/business_flow"
	"github.com/propmatch/PropMatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMatchFlow counts sweeps; with block set it parks inside the sweep
// until the run context is cancelled, recording the cancellation cause.
type recordingMatchFlow struct {
	mu      sync.Mutex
	sweeps  int
	ctxErrs []error
	block   bool
}

func (f *recordingMatchFlow) RunDailySweep(ctx context.Context, staleAfter time.Duration) (*businessflow.SweepSummary, error) {
	f.mu.Lock()
	f.sweeps++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		f.mu.Lock()
		f.ctxErrs = append(f.ctxErrs, ctx.Err())
		f.mu.Unlock()
		return nil, ctx.Err()
	}

	return &businessflow.SweepSummary{UsersChecked: 1, MatchesFound: 1}, nil
}

func (f *recordingMatchFlow) RunMatchCheckForUser(ctx context.Context, userID uint) (int, error) {
	return 0, nil
}

func (f *recordingMatchFlow) ListMatches(ctx context.Context, userID uint) (*dto.ListMatchesResponse, error) {
	return nil, nil
}

func (f *recordingMatchFlow) MarkMatchViewed(ctx context.Context, userID, matchID uint) error {
	return nil
}

func (f *recordingMatchFlow) FetchExternalMatches(ctx context.Context, userID uint) (json.RawMessage, error) {
	return nil, nil
}

func (f *recordingMatchFlow) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func (f *recordingMatchFlow) cancellations() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.ctxErrs...)
}

func TestRunOnceBoundsSweepDuration(t *testing.T) {
	flow := &recordingMatchFlow{block: true}
	s := NewMatchScheduler(flow, config.SchedulerConfig{
		SweepInterval: 50 * time.Millisecond,
		StaleAfter:    time.Hour,
	})

	done := make(chan struct{})
	go func() {
		s.runOnce(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep was not released by the per-run deadline")
	}

	errs := flow.cancellations()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.DeadlineExceeded)
}

func TestStartSweepsImmediatelyAndStops(t *testing.T) {
	flow := &recordingMatchFlow{}
	s := NewMatchScheduler(flow, config.SchedulerConfig{
		SweepInterval: time.Hour,
		StaleAfter:    24 * time.Hour,
	})

	stop := s.Start(context.Background())
	defer stop()

	assert.Eventually(t, func() bool {
		return flow.sweepCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	stop()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, flow.sweepCount())
}
