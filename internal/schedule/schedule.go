// Package schedule drives the long-running loops. Each loop is a plain
// cycle func registered at a fixed interval; tests call the cycle funcs
// directly instead of waiting on real time.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "newswatch/pkg/logx"
)

// Job is one recurring cycle.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

type Service struct {
	mu      sync.Mutex
	log     logx.Logger
	c       *cron.Cron
	ctx     context.Context
	started bool
}

func New(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, c: cron.New()}
}

// Add registers a job. Overlapping invocations are skipped: if a cycle is
// still running when its next tick fires, the tick is dropped rather than
// queued, so a slow cycle never builds a backlog.
func (s *Service) Add(job Job) error {
	if job.Every < time.Second {
		return fmt.Errorf("job %s: interval %s below 1s cron granularity", job.Name, job.Every)
	}
	var running sync.Mutex
	_, err := s.c.AddFunc(fmt.Sprintf("@every %s", job.Every), func() {
		if !running.TryLock() {
			s.log.Debug("cycle still running; tick skipped", logx.String("job", job.Name))
			return
		}
		defer running.Unlock()

		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.log.Warn("cycle failed", logx.String("job", job.Name),
				logx.Duration("dur", time.Since(start)), logx.Err(err))
			return
		}
		s.log.Debug("cycle complete", logx.String("job", job.Name),
			logx.Duration("dur", time.Since(start)))
	})
	return err
}

// Start begins ticking. ctx cancellation makes in-flight cycles wind down;
// call Stop to wait for them.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx = ctx
	s.started = true
	s.c.Start()
}

// Stop halts ticking and waits for any running cycle, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with cycles in flight")
	}
}
