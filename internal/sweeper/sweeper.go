// Package sweeper runs the periodic expiration sweep as a cancellable
// background task, decoupled from request handling. It talks to the lifecycle
// manager only through its public sweep operation.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepRunner is the single lifecycle operation the sweeper invokes.
// *service.LinkService implements it.
type SweepRunner interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type Sweeper struct {
	runner   SweepRunner
	interval time.Duration
	log      *zap.Logger
}

func New(runner SweepRunner, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{runner: runner, interval: interval, log: log}
}

// SweepOnce performs a single sweep, absorbing errors into the log. The
// process calls it once at startup before accepting traffic to reclaim state
// accumulated while offline.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	deleted, err := s.runner.SweepExpired(ctx)
	if err != nil {
		// log and wait for the next interval; a failed sweep is never fatal
		s.log.Error("expiration sweep failed", zap.Error(err))
		return
	}
	s.log.Info("expiration sweep complete", zap.Int64("deleted", deleted))
}

// Run sweeps on the configured interval until ctx is cancelled. Each sweep's
// store handle is scoped to the SweepExpired call, so cancellation mid-sweep
// releases it on the way out.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}
