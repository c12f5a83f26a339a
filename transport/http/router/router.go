package router

import (
	"venue/internal/handlers/auth"
	"venue/internal/handlers/booking"
	"venue/internal/handlers/user"
	"venue/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth    auth.Handler
	User    user.Handler
	Booking booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	authRole       middleware.AuthRole
}

// SetupRoutes mounts every domain under /v1. Authentication and role checks
// run on the whole group; public endpoints opt out through the permissions file.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.authRole.APIKey, r.authRole.Auth, r.authRole.RBAC)

		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		authRole:       authRole,
	}
}
