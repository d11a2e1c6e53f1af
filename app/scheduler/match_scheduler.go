// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	businessflow "github.com/propmatch/PropMatch/business_flow"
	"github.com/propmatch/PropMatch/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MatchScheduler periodically re-runs the match check for users whose
// preferences have gone stale
type MatchScheduler struct {
	matchFlow  businessflow.MatchFlow
	logger     *log.Logger
	interval   time.Duration
	staleAfter time.Duration
}

func NewMatchScheduler(matchFlow businessflow.MatchFlow, cfg config.SchedulerConfig) *MatchScheduler {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}

	s := &MatchScheduler{
		matchFlow:  matchFlow,
		interval:   interval,
		staleAfter: staleAfter,
	}
	s.initSchedulerLogger(cfg.LogPath)

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a rotating file
func (s *MatchScheduler) initSchedulerLogger(logPath string) {
	if logPath == "" {
		s.logger = log.New(os.Stdout, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return
	}

	rotating := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotating)
	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *MatchScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *MatchScheduler) runOnce(ctx context.Context) {
	started := time.Now()

	// Bound each run by the tick interval so a wedged sweep cannot pile
	// up behind the next one
	runCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	summary, err := s.matchFlow.RunDailySweep(runCtx, s.staleAfter)
	if err != nil {
		s.logger.Printf("scheduler: daily sweep failed: %v", err)
		return
	}

	if summary.UsersChecked == 0 && summary.UsersFailed == 0 {
		return
	}

	s.logger.Printf("scheduler: sweep done users=%d failed=%d matches=%d took=%s",
		summary.UsersChecked, summary.UsersFailed, summary.MatchesFound, time.Since(started).Round(time.Millisecond))
}
