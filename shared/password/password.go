package password

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinCost = bcrypt.MinCost
	MaxCost = bcrypt.MaxCost
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmptyPassword   = errors.New("password cannot be empty")
)

// Cost maps a configured cost into bcrypt's range. Zero selects bcrypt's default.
func Cost(configured int) int {
	switch {
	case configured == 0:
		return bcrypt.DefaultCost
	case configured < MinCost:
		return MinCost
	case configured > MaxCost:
		return MaxCost
	default:
		return configured
	}
}

func Hash(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), Cost(cost))
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	return string(hashed), nil
}

// Verify returns ErrInvalidPassword on any mismatch. Other errors mean the hash is unreadable.
func Verify(plain, hash string) error {
	if plain == "" || hash == "" {
		return ErrInvalidPassword
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}

	return errors.Wrap(err, "verify password")
}

// NeedsRehash reports whether hash was produced below the configured cost.
func NeedsRehash(hash string, cost int) bool {
	current, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}

	return current < Cost(cost)
}
