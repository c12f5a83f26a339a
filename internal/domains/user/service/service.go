package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=User=MockUserService

import (
	"context"
	"fmt"
	"venue/config"
	"venue/infras/otel"
	"venue/internal/domains/user/model"
	"venue/internal/domains/user/model/dto"
	"venue/internal/domains/user/repository"
	"venue/shared"
	"venue/shared/cache"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetUser    = "user:get"
	cacheGetAllUser = "user:gets"
	cacheCountUser  = "user:count"
)

type User interface {
	// Resolve looks a caller up by username and reports its id and role.
	Resolve(ctx context.Context, username string) (model.User, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetUsersResponse, error)
	Get(ctx context.Context, id string) (dto.UserResponse, error)
	UpdateRole(ctx context.Context, req dto.UpdateRoleRequest, id string) error
}

type serviceImpl struct {
	repo  repository.User
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) User {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Resolve(ctx context.Context, username string) (res model.User, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Resolve")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	res, err = s.repo.Get(ctx, gDto.And(gDto.Eq(model.FieldUsername, username).On(model.TableName)))
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to resolve user")

		return res, fmt.Errorf("failed to resolve user: %w", err)
	}

	// Deactivated accounts resolve like unknown ones.
	if res.ID == "" || !res.Active {
		return model.User{}, failure.NotFound("user not found")
	}

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetUsersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllUser, req, filter)

	return shared.CacheAside(ctx, s.cache, cacheKey, s.cfg.Cache.TTL, func(ctx context.Context) (res dto.GetUsersResponse, err error) {
		total, err := s.count(ctx, filter)
		if err != nil {
			return res, err
		}

		models, err := s.repo.GetAll(ctx, req, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to get users")

			return res, fmt.Errorf("failed to get users: %w", err)
		}

		res.FromModels(models, total, req.Limit)

		return res, nil
	})
}

func (s *serviceImpl) count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountUser, gDto.QueryParams{}, filter)

	return shared.CacheAside(ctx, s.cache, cacheKey, s.cfg.Cache.TTL, func(ctx context.Context) (int, error) {
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count users")

			return 0, fmt.Errorf("failed to count users: %w", err)
		}

		return total, nil
	})
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if uuid.Validate(id) != nil {
		return res, failure.NotFound("user not found")
	}

	return shared.CacheAside(ctx, s.cache, shared.BuildCacheKey(cacheGetUser, id), s.cfg.Cache.TTL, func(ctx context.Context) (res dto.UserResponse, err error) {
		user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("failed to get user")

			return res, fmt.Errorf("failed to get user: %w", err)
		}

		if user.ID == "" {
			return res, failure.NotFound("user not found")
		}

		res.FromModel(user)

		return res, nil
	})
}

type roleUpdate struct {
	Role model.Role `db:"role"`
}

func (s *serviceImpl) UpdateRole(ctx context.Context, req dto.UpdateRoleRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateRole")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if uuid.Validate(id) != nil {
		return failure.NotFound("user not found")
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		return failure.BadRequest(err) //nolint:wrapcheck
	}

	username, _ := ctx.Value(constant.ContextKeyUsername).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if !exist {
		return failure.NotFound("user not found")
	}

	if err = s.repo.Update(ctx, shared.TransformFields(roleUpdate{Role: role}, username), filter); err != nil {
		log.Error().Err(err).Msg("failed to update user role")

		return fmt.Errorf("failed to update user role: %w", err)
	}

	s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

// invalidate runs before the write returns so the next read misses.
func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetUser, id)); err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to delete user from cache")
	}

	shared.InvalidateCaches(ctx, s.cache, cacheGetAllUser)
	shared.InvalidateCaches(ctx, s.cache, cacheCountUser)
}
