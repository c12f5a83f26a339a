package main

import (
	"context"
	"venue/config"
	"venue/di"
	"venue/helper"
	"venue/shared/logger"
	"venue/shared/timezone"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if err := timezone.Set(cfg.App.Timezone); err != nil {
		log.Fatal().Err(err).Msg("Failed to load venue time zone")
	}

	log.Info().Str("timezone", timezone.Location().String()).Msg("Venue time zone loaded")

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	app, cleanup, err := di.InitializeService()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}

	ctx, cancel := context.WithCancel(context.Background())

	if app.Scheduler != nil {
		go app.Scheduler.Start(ctx)
	}

	app.HTTP.OnShutdown(cancel)
	app.HTTP.OnShutdown(cleanup)

	app.HTTP.Serve()
}
