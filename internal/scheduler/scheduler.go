package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultInterval = time.Minute

type bookingCompleter interface {
	Complete(ctx context.Context) (int, error)
}

// Scheduler runs the booking completion sweep on a fixed interval.
type Scheduler struct {
	bookings bookingCompleter
	interval time.Duration
}

func New(bookings bookingCompleter, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Scheduler{
		bookings: bookings,
		interval: interval,
	}
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")

			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	completed, err := s.bookings.Complete(ctx)
	if err != nil {
		log.Error().Err(err).Int("completed", completed).Msg("failed to complete finished bookings")

		return
	}

	if completed > 0 {
		log.Info().Int("completed", completed).Msg("completed finished bookings")
	}
}
