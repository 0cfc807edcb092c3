package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	logx "newswatch/pkg/logx"
)

func TestAddRejectsSubSecondInterval(t *testing.T) {
	s := New(logx.Nop())
	err := s.Add(Job{Name: "too-fast", Every: 100 * time.Millisecond, Run: func(ctx context.Context) error { return nil }})
	if err == nil {
		t.Fatalf("expected error for sub-second interval")
	}
}

func TestJobRunsOnSchedule(t *testing.T) {
	s := New(logx.Nop())
	var runs atomic.Int32
	err := s.Add(Job{Name: "tick", Every: time.Second, Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	defer func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		s.Stop(stopCtx)
	}()

	deadline := time.After(3 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("job never ran")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
