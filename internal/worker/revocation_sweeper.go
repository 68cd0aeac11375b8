package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is a revocation registry that can forget naturally expired entries.
type Sweeper interface {
	Sweep(now time.Time) int
}

// StartRevocationSweeper runs Sweep every interval until ctx is done. The
// returned channel is closed when the loop exits.
func StartRevocationSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sweeper == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := sweeper.Sweep(now); removed > 0 {
					logger.Debug("revocation sweep", zap.Int("removed", removed))
				}
			}
		}
	}()
	return done
}
