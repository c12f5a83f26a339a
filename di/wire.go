//go:build wireinject
// +build wireinject

package di

import (
	"venue/config"
	"venue/infras/jwt"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/infras/redis"
	authService "venue/internal/domains/auth/service"
	bookingEvent "venue/internal/domains/booking/event"
	bookingRepository "venue/internal/domains/booking/repository"
	bookingService "venue/internal/domains/booking/service"
	userRepository "venue/internal/domains/user/repository"
	userService "venue/internal/domains/user/service"
	authHandler "venue/internal/handlers/auth"
	bookingHandler "venue/internal/handlers/booking"
	userHandler "venue/internal/handlers/user"
	"venue/permissions"
	"venue/shared/cache"
	"venue/transport/http"
	"venue/transport/http/middleware"
	"venue/transport/http/router"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	provideConnection,
	postgres.NewTransactor,
	otel.New,
	redis.New,
	jwt.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	authService.New,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingRepository.NewRequirement,
	bookingRepository.NewResponsibleParty,
	bookingEvent.New,
	wire.Bind(new(bookingService.IdentityResolver), new(userService.User)),
	bookingService.New,
	provideScheduler,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() (*App, func(), error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}, nil, nil
}
