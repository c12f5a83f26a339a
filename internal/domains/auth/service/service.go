package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"venue/config"
	"venue/infras/jwt"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/internal/domains/auth/model/dto"
	userModel "venue/internal/domains/user/model"
	userRepo "venue/internal/domains/user/repository"
	"venue/shared"
	"venue/shared/constant"
	gDto "venue/shared/dto"
	"venue/shared/failure"
	"venue/shared/password"
	"venue/shared/timezone"

	"github.com/rs/zerolog/log"
)

const errInvalidCredentials = "invalid username or password"

type Auth interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) error
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
	}
}

func filterByUsername(username string) gDto.FilterGroup {
	return gDto.And(gDto.Eq(userModel.FieldUsername, username).On(userModel.TableName))
}

// lookup returns the zero user when nothing matches.
func (s *serviceImpl) lookup(ctx context.Context, filter gDto.FilterGroup) (userModel.User, error) {
	user, err := s.userRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return user, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *serviceImpl) hash(plain string) (string, error) {
	hashed, err := password.Hash(plain, s.cfg.App.PasswordCost)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hashed, nil
}

func (s *serviceImpl) Register(ctx context.Context, req dto.RegisterRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Register")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	taken, err := s.userRepo.Exist(ctx, gDto.Or(
		gDto.Eq(userModel.FieldUsername, req.Username).On(userModel.TableName),
		gDto.Eq(userModel.FieldEmail, req.Email).On(userModel.TableName),
	))
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("failed to check for an existing account")

		return fmt.Errorf("failed to check for an existing account: %w", err)
	}

	if taken {
		return failure.Conflict("username or email already registered")
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return err
	}

	if err = s.userRepo.Insert(ctx, req.ToUserModel(constant.ContextSystem, hashed)); err != nil {
		// a concurrent registration can slip past the Exist check
		if postgres.IsUniqueViolation(err) {
			return failure.Conflict("username or email already registered")
		}

		log.Error().Err(err).Str("username", req.Username).Msg("failed to create user")

		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Login answers unknown usernames and wrong passwords alike. Deactivated
// accounts are only revealed to callers holding the right password.
func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := filterByUsername(req.Username)

	user, err := s.lookup(ctx, filter)
	if err != nil {
		return res, err
	}

	switch {
	case user.ID == constant.Empty:
		log.Warn().Str("username", req.Username).Msg("login attempt with unknown username")

		return res, failure.Unauthorized(errInvalidCredentials)
	case password.Verify(req.Password, user.Password) != nil:
		log.Warn().Str("username", req.Username).Msg("login attempt with wrong password")

		return res, failure.Unauthorized(errInvalidCredentials)
	case !user.Active:
		return res, failure.Forbidden("user account is deactivated")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(ctx, user.ID, user.Username, user.Role.String())
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to generate tokens")

		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.recordLogin(ctx, user, req.Password, filter)

	res.FromTokenPair(tokenPair, user.Role)

	return res, nil
}

// recordLogin stamps the login time and upgrades a hash weaker than the
// configured cost. Failures are logged only; the caller is already signed in.
func (s *serviceImpl) recordLogin(ctx context.Context, user userModel.User, plain string, filter gDto.FilterGroup) {
	update := dto.LoginUpdate{LastLogin: timezone.Now()}

	if password.NeedsRehash(user.Password, s.cfg.App.PasswordCost) {
		if hashed, err := s.hash(plain); err == nil {
			update.Password = hashed
		}
	}

	if err := s.userRepo.Update(ctx, shared.TransformFields(update, user.Username), filter); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record login")
	}
}

func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshToken")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	tokenPair, err := s.jwtService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("refresh token rejected")

		return res, failure.Unauthorized("invalid refresh token")
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ChangePassword")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(userID, userModel.FieldID, userModel.TableName)

	user, err := s.lookup(ctx, filter)
	if err != nil {
		return err
	}

	if user.ID == constant.Empty {
		return failure.NotFound("user not found")
	}

	if password.Verify(req.CurrentPassword, user.Password) != nil {
		return failure.BadRequestFromString("current password is incorrect")
	}

	hashed, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}

	username, _ := ctx.Value(constant.ContextKeyUsername).(string)

	if err = s.userRepo.Update(ctx, shared.TransformFields(dto.PasswordUpdate{Password: hashed}, username), filter); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to update password")

		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
