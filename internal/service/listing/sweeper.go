package listing

import (
	"context"
	"time"

	"github.com/nkiryanov/metalrezerv/internal/lock"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/repository"
)

const (
	defaultSweepInterval = time.Minute
	sweepLockName        = "metalrezerv:listing-sweeper"
)

// Sweeper unpublishes listings whose publication period has ended
// Only one instance sweeps at a time, the others skip the tick
type Sweeper struct {
	interval time.Duration
	listings repository.ListingRepo
	locker   lock.Locker
	logger   logger.Logger

	now func() time.Time
}

func NewSweeper(interval time.Duration, listings repository.ListingRepo, locker lock.Locker, l logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		interval: interval,
		listings: listings,
		locker:   locker,
		logger:   l.With("component", "listing-sweeper"),
		now:      time.Now,
	}
}

// Run sweeps on every tick until ctx is done
// The returned channel is closed when the sweeper stopped
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting sweeper", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped by context")
				return

			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Error("Failed to unpublish expired listings", "error", err)
				}
			}
		}
	}()

	return idleStopped
}

// Sweep once and return number of unpublished listings
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	var count int64

	acquired, err := s.locker.TryWithLock(ctx, sweepLockName, func(ctx context.Context) error {
		var err error
		count, err = s.listings.UnpublishExpired(ctx, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	if !acquired {
		s.logger.Debug("Sweep skipped, another instance is sweeping")
		return 0, nil
	}

	if count > 0 {
		s.logger.Info("Expired listings unpublished", "count", count)
	}
	return count, nil
}
