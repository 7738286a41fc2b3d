package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cmaloney/taskward/internal/domain"
)

// TodoUpdate carries the fields a todo update may change. Nil fields are
// left untouched.
type TodoUpdate struct {
	Heading   *string
	Body      *string
	Completed *bool
	DueAt     *time.Time
	ClearDue  bool
}

// TodoStore defines the interface for todo record persistence. Every
// owner-scoped method treats "absent" and "owned by someone else"
// identically, returning ErrTodoNotFound for both.
type TodoStore interface {
	// Create saves a new todo record.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves a todo by id, scoped to the given owner.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error)

	// ListByOwner retrieves all todos belonging to the given owner, newest
	// first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Todo, error)

	// Update applies the given field changes to a todo, scoped to the owner,
	// and returns the updated record. Completing a record also sets
	// reminder_sent, since no reminder is meaningful once done.
	Update(ctx context.Context, ownerID, id uuid.UUID, upd TodoUpdate) (*domain.Todo, error)

	// Delete removes a todo, scoped to the owner.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// ListReminderCandidates retrieves every todo that is not completed, has
	// not had a reminder sent, and carries a due date. Used by the reminder
	// scheduler.
	ListReminderCandidates(ctx context.Context) ([]*domain.Todo, error)

	// MarkReminderSent conditionally flips reminder_sent to true for the
	// given record. The update is a no-op (without error) if the flag was
	// already set, keeping the transition one-way.
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
