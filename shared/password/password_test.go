package password_test

import (
	"strings"
	"testing"
	"venue/shared/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, password.Cost(0))
	assert.Equal(t, password.MinCost, password.Cost(1))
	assert.Equal(t, 12, password.Cost(12))
	assert.Equal(t, password.MaxCost, password.Cost(99))
}

func TestHash(t *testing.T) {
	t.Run("empty password", func(t *testing.T) {
		_, err := password.Hash("", password.MinCost)
		assert.ErrorIs(t, err, password.ErrEmptyPassword)
	})

	t.Run("salted", func(t *testing.T) {
		first, err := password.Hash("s3cret-pass", password.MinCost)
		require.NoError(t, err)

		second, err := password.Hash("s3cret-pass", password.MinCost)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.True(t, strings.HasPrefix(first, "$2"))
	})

	t.Run("longer than bcrypt allows", func(t *testing.T) {
		_, err := password.Hash(strings.Repeat("a", 80), password.MinCost)
		assert.Error(t, err)
	})
}

func TestVerify(t *testing.T) {
	hash, err := password.Hash("s3cret-pass", password.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{name: "match", password: "s3cret-pass", hash: hash},
		{name: "mismatch", password: "wrong-pass", hash: hash, wantErr: password.ErrInvalidPassword},
		{name: "empty password", password: "", hash: hash, wantErr: password.ErrInvalidPassword},
		{name: "empty hash", password: "s3cret-pass", hash: "", wantErr: password.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.Verify(tt.password, tt.hash)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("malformed hash", func(t *testing.T) {
		err := password.Verify("s3cret-pass", "not-a-bcrypt-hash")
		require.Error(t, err)
		assert.NotErrorIs(t, err, password.ErrInvalidPassword)
	})
}

func TestNeedsRehash(t *testing.T) {
	hash, err := password.Hash("s3cret-pass", password.MinCost)
	require.NoError(t, err)

	assert.False(t, password.NeedsRehash(hash, password.MinCost))
	assert.True(t, password.NeedsRehash(hash, password.MinCost+1))
	assert.False(t, password.NeedsRehash("garbage", password.MaxCost))
}
