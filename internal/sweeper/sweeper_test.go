package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRunner) SweepExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return 0, r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSweepOnce(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, time.Minute, zap.NewNop())

	s.SweepOnce(context.Background())
	if runner.count() != 1 {
		t.Errorf("calls = %d; want 1", runner.count())
	}
}

func TestRun_SweepsOnIntervalUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", runner.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRun_ContinuesAfterSweepError(t *testing.T) {
	// a failing store must not stop the loop; the error is logged and the
	// next interval tries again
	runner := &countingRunner{err: errors.New("store down")}
	s := New(runner, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	deadline := time.After(2 * time.Second)
	for runner.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", runner.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(&countingRunner{}, 0, zap.NewNop())
	if s.interval != 5*time.Minute {
		t.Errorf("interval = %v; want 5m default", s.interval)
	}
}
