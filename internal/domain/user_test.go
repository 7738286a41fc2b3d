package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmaloney/taskward/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("valid user", func(t *testing.T) {
		t.Parallel()

		user, err := domain.NewUser("Alice", "alice@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Empty(t, user.HashedPassword)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewUser("Alice", "not-an-email", "password123")
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewUser("", "alice@example.com", "password123")
		assert.ErrorIs(t, err, domain.ErrEmptyName)
	})

	t.Run("short password rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewUser("Alice", "alice@example.com", "short")
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	})

	t.Run("password over bcrypt limit rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewUser("Alice", "alice@example.com", strings.Repeat("p", 73))
		assert.ErrorIs(t, err, domain.ErrPasswordTooLong)
	})
}

func TestUserValidate_HashedOnly(t *testing.T) {
	t.Parallel()

	// A user loaded from the store has no plaintext password; only the hash.
	user, err := domain.NewUser("Bob", "bob@example.com", "password123")
	require.NoError(t, err)

	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	user.Password = ""
	assert.NoError(t, user.Validate())

	user.HashedPassword = ""
	assert.ErrorIs(t, user.Validate(), domain.ErrEmptyPassword)
}
