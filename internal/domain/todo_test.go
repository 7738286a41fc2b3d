package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmaloney/taskward/internal/domain"
)

func TestNewTodo(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	future := time.Now().UTC().Add(24 * time.Hour)

	t.Run("valid todo without due date", func(t *testing.T) {
		t.Parallel()

		todo, err := domain.NewTodo(ownerID, "Buy groceries", "milk, eggs", nil)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, todo.ID)
		assert.Equal(t, ownerID, todo.OwnerID)
		assert.Equal(t, "Buy groceries", todo.Heading)
		assert.False(t, todo.Completed)
		assert.False(t, todo.ReminderSent)
		assert.Nil(t, todo.DueAt)
	})

	t.Run("valid todo with future due date", func(t *testing.T) {
		t.Parallel()

		todo, err := domain.NewTodo(ownerID, "File taxes", "", &future)
		require.NoError(t, err)
		require.NotNil(t, todo.DueAt)
		assert.True(t, todo.DueAt.Equal(future))
	})

	t.Run("empty heading rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTodo(ownerID, "", "body", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyHeading)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("heading longer than 200 characters rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTodo(ownerID, strings.Repeat("x", 201), "", nil)
		assert.ErrorIs(t, err, domain.ErrHeadingTooLong)
	})

	t.Run("heading of exactly 200 characters accepted", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTodo(ownerID, strings.Repeat("x", 200), "", nil)
		assert.NoError(t, err)
	})

	t.Run("past due date rejected", func(t *testing.T) {
		t.Parallel()

		past := time.Now().UTC().Add(-time.Hour)
		_, err := domain.NewTodo(ownerID, "Too late", "", &past)
		assert.ErrorIs(t, err, domain.ErrDueDateInPast)
	})

	t.Run("nil owner rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTodo(uuid.Nil, "No owner", "", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyOwnerID)
	})
}

func TestTodoReminderThreshold(t *testing.T) {
	t.Parallel()

	t.Run("threshold is 90 percent of the created-to-due interval", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		due := created.Add(10 * time.Hour)
		todo := &domain.Todo{
			ID:        uuid.New(),
			OwnerID:   uuid.New(),
			Heading:   "h",
			CreatedAt: created,
			DueAt:     &due,
		}

		threshold, ok := todo.ReminderThreshold()
		require.True(t, ok)
		assert.Equal(t, created.Add(9*time.Hour), threshold)
	})

	t.Run("no due date means no threshold", func(t *testing.T) {
		t.Parallel()

		todo := &domain.Todo{ID: uuid.New(), OwnerID: uuid.New(), Heading: "h"}
		_, ok := todo.ReminderThreshold()
		assert.False(t, ok)
	})
}
