package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"venue/config"
	"venue/infras/jwt"
	"venue/infras/otel"
	"venue/permissions"
	"venue/shared/constant"
	"venue/shared/failure"
	"venue/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type internalCallerKey struct{}

type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService  jwt.JWT
	otel        otel.Otel
	permissions *permissions.PermissionData
	cfg         *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService:  jwtService,
		otel:        otel,
		permissions: permissions,
		cfg:         cfg,
	}
}

func isInternal(ctx context.Context) bool {
	internal, _ := ctx.Value(internalCallerKey{}).(bool)

	return internal
}

// permission resolves the rule of the route chi will dispatch the request to.
func (m *authRoleImpl) permission(request *http.Request) (permissions.Permission, bool) {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || m.permissions == nil {
		return permissions.Permission{}, false
	}

	pattern := rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path)

	return m.permissions.Lookup(request.Method, pattern)
}

// Auth validates the bearer token and puts the caller's identity on the
// context. Public routes and internal callers pass through untouched.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if isInternal(request.Context()) {
			next.ServeHTTP(writer, request)

			return
		}

		if permission, _ := m.permission(request); permission.Public {
			next.ServeHTTP(writer, request)

			return
		}

		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "auth.middleware")
		scope.SetAttributes(map[string]any{
			"middleware.type": "auth",
			"http.method":     request.Method,
		})

		claims, err := m.authenticate(ctx, request.Header.Get(constant.RequestHeaderAuthorization))
		if err != nil {
			scope.TraceError(err)
			scope.End()

			response.WithError(writer, err)

			return
		}

		scope.End()

		ctx = request.Context()
		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, constant.ContextKeyUsername, claims.Username)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, claims.Role)
		ctx = context.WithValue(ctx, constant.ContextKeyTokenID, claims.TokenID)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func (m *authRoleImpl) authenticate(ctx context.Context, header string) (*jwt.Claims, error) {
	if header == "" {
		return nil, failure.Unauthorized("Missing authorization header")
	}

	token, err := jwt.ExtractTokenFromHeader(header)
	if err != nil {
		return nil, failure.Unauthorized("Invalid authorization header format")
	}

	claims, err := m.jwtService.ValidateToken(ctx, token, jwt.AccessToken)

	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, failure.Unauthorized("Token has expired")
	case errors.Is(err, jwt.ErrInvalidToken):
		return nil, failure.Unauthorized("Invalid token")
	case errors.Is(err, jwt.ErrInvalidClaim):
		return nil, failure.Unauthorized("Invalid token claims")
	case err != nil:
		return nil, failure.Unauthorized("Token validation failed")
	}

	if claims.UserID == "" || claims.Username == "" {
		log.Error().Str("token_id", claims.TokenID).Msg("token carries no user")

		return nil, failure.Unauthorized("Invalid token claims")
	}

	return claims, nil
}

// RBAC admits the request when the caller's role is listed for the route.
// Routes missing from the permission table are denied.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if isInternal(request.Context()) {
			next.ServeHTTP(writer, request)

			return
		}

		permission, found := m.permission(request)
		if permission.Public {
			next.ServeHTTP(writer, request)

			return
		}

		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "rbac.middleware")

		role, _ := request.Context().Value(constant.ContextKeyUserRole).(string)

		if !found || !permission.Allows(role) {
			scope.SetAttributes(map[string]any{
				"user_role":     role,
				"allowed_roles": permission.Roles,
				"route_listed":  found,
			})
			scope.TraceError(failure.ForbiddenError)
			scope.End()

			response.WithError(writer, failure.ForbiddenError)

			return
		}

		scope.End()

		next.ServeHTTP(writer, request)
	})
}

// APIKey lets service-to-service callers holding the shared key bypass token
// and role checks. Requests without the header are left to Auth.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		key := request.Header.Get(constant.RequestHeaderAPIKey)
		if key == "" {
			next.ServeHTTP(writer, request)

			return
		}

		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "api_key.middleware")
		scope.SetAttribute("http.source", "internal")

		expected := m.cfg.App.APIKey
		if expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			scope.TraceError(failure.ForbiddenError)
			scope.End()

			response.WithError(writer, failure.ForbiddenError)

			return
		}

		scope.End()

		next.ServeHTTP(writer, request.WithContext(context.WithValue(request.Context(), internalCallerKey{}, true)))
	})
}
