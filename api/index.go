package handler

import (
	"net/http"
	"sync"
	"venue/config"
	"venue/di"
	"venue/shared/logger"
	"venue/shared/timezone"
	"venue/transport/http/response"

	"github.com/rs/zerolog/log"
)

var (
	app     *di.App
	appErr  error
	appOnce sync.Once
)

// Handler is the serverless entrypoint. The completion sweep does not run here;
// it needs a long-lived process.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	appOnce.Do(func() {
		cfg := config.Get()

		logger.InitLogger()

		logger.SetLogLevel(cfg)

		if appErr = timezone.Set(cfg.App.Timezone); appErr != nil {
			return
		}

		app, _, appErr = di.InitializeService()
	})

	if appErr != nil {
		log.Error().Err(appErr).Msg("Failed to initialize service")
		response.WithUnhealthy(w)

		return
	}

	app.HTTP.ServeHTTP(w, r)
}
