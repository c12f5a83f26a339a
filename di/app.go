package di

import (
	"time"
	"venue/config"
	"venue/infras/postgres"
	bookingService "venue/internal/domains/booking/service"
	"venue/internal/scheduler"
	"venue/transport/http"

	"github.com/rs/zerolog/log"
)

// App bundles the long-running parts started by cmd/app.
type App struct {
	HTTP      *http.HTTP
	Scheduler *scheduler.Scheduler
}

func provideConnection(cfg *config.Config) (*postgres.Connection, func(), error) {
	conn, err := postgres.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	return conn, func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close postgres connections")
		}
	}, nil
}

// provideScheduler returns nil when the completion sweep is disabled.
func provideScheduler(bookings bookingService.Booking, cfg *config.Config) *scheduler.Scheduler {
	if !cfg.Scheduler.Enable {
		return nil
	}

	return scheduler.New(bookings, time.Duration(cfg.Scheduler.CompleteIntervalSeconds)*time.Second)
}
