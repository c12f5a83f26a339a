package dto

import (
	"time"
	"venue/infras/jwt"
	userModel "venue/internal/domains/user/model"
	gModel "venue/shared/model"
	"venue/shared/timezone"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string  `json:"username"            validate:"required,alphanum,min=3,max=50"`
	Email    string  `json:"email"               validate:"required,email"`
	Password string  `json:"password"            validate:"required,min=8,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
}

// ToUserModel builds the identity record. Self-registered users are always requesters.
func (r *RegisterRequest) ToUserModel(createdBy string, hashedPassword string) userModel.User {
	now := timezone.Now()

	return userModel.User{
		ID:       uuid.NewString(),
		Username: r.Username,
		Email:    r.Email,
		Password: hashedPassword,
		Role:     userModel.RoleRequester,
		FullName: r.FullName,
		Active:   true,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  createdBy,
			ModifiedBy: createdBy,
		},
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginUpdate is written after a successful login. Password is only set when
// the stored hash is upgraded to the configured cost.
type LoginUpdate struct {
	LastLogin time.Time `db:"last_login"`
	Password  string    `db:"password"`
}

// Tokens is the credential part shared by the login and refresh responses.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func tokensOf(pair *jwt.TokenPair) Tokens {
	return Tokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}
}

type LoginResponse struct {
	Tokens
	TokenType string `json:"token_type"`
	Role      string `json:"role"`
}

func (l *LoginResponse) FromTokenPair(pair *jwt.TokenPair, role userModel.Role) {
	l.Tokens = tokensOf(pair)
	l.TokenType = pair.TokenType
	l.Role = role.String()
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshTokenResponse struct {
	Tokens
}

func (r *RefreshTokenResponse) FromTokenPair(pair *jwt.TokenPair) {
	r.Tokens = tokensOf(pair)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// PasswordUpdate replaces the stored hash.
type PasswordUpdate struct {
	Password string `db:"password"`
}
