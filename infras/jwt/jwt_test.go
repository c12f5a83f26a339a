package jwt_test

import (
	"context"
	"testing"
	"venue/config"
	"venue/infras/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() jwt.JWT {
	cfg := &config.Config{}
	cfg.App.Name = "venue"
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.JWT.AccessExpireMin = 15
	cfg.JWT.RefreshExpireMin = 60

	return jwt.New(cfg)
}

func TestGenerateAndValidate(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	pair, err := svc.GenerateTokenPair(ctx, "u-1", "ana", "administrator")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.EqualValues(t, 15*60, pair.ExpiresIn)

	claims, err := svc.ValidateToken(ctx, pair.AccessToken, jwt.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "administrator", claims.Role)
	assert.NotEmpty(t, claims.TokenID)

	_, err = svc.ValidateToken(ctx, pair.AccessToken, jwt.RefreshToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = svc.ValidateToken(ctx, "garbage", jwt.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	pair, err := svc.GenerateTokenPair(ctx, "u-2", "ben", "requester")
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, refreshed.AccessToken, jwt.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ben", claims.Username)

	_, err = svc.RefreshTokens(ctx, pair.AccessToken)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := jwt.ExtractTokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		_, err = jwt.ExtractTokenFromHeader(header)
		assert.Error(t, err, header)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	pair, err := svc.GenerateTokenPair(ctx, "u-1", "ana", "requester")
	require.NoError(t, err)

	t.Run("other issuer", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.App.Name = "someone-else"
		cfg.JWT.AccessSecret = "access-secret"
		cfg.JWT.RefreshSecret = "refresh-secret"

		_, err := jwt.New(cfg).ValidateToken(ctx, pair.AccessToken, jwt.AccessToken)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.App.Name = "venue"
		cfg.JWT.AccessSecret = "access-secret"
		cfg.JWT.RefreshSecret = "refresh-secret"
		cfg.JWT.AccessExpireMin = -1

		expired, err := jwt.New(cfg).GenerateTokenPair(ctx, "u-1", "ana", "requester")
		require.NoError(t, err)

		_, err = svc.ValidateToken(ctx, expired.AccessToken, jwt.AccessToken)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("same secret but wrong type", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.JWT.AccessSecret = "shared"
		cfg.JWT.RefreshSecret = "shared"
		cfg.JWT.AccessExpireMin = 15
		cfg.JWT.RefreshExpireMin = 15

		shared := jwt.New(cfg)

		sharedPair, err := shared.GenerateTokenPair(ctx, "u-1", "ana", "requester")
		require.NoError(t, err)

		_, err = shared.ValidateToken(ctx, sharedPair.RefreshToken, jwt.AccessToken)
		assert.ErrorIs(t, err, jwt.ErrInvalidClaim)
	})
}

func TestGenerateTokenPair_MissingSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "access-secret"

	_, err := jwt.New(cfg).GenerateTokenPair(context.Background(), "u-1", "ana", "requester")
	assert.ErrorIs(t, err, jwt.ErrMissingSecret)
}
