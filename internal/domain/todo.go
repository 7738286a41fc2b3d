package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Todo validation errors.
var (
	ErrEmptyTodoID    = fmt.Errorf("%w: todo ID cannot be empty", ErrValidation)
	ErrEmptyOwnerID   = fmt.Errorf("%w: owner ID cannot be empty", ErrValidation)
	ErrEmptyHeading   = fmt.Errorf("%w: heading cannot be empty", ErrValidation)
	ErrHeadingTooLong = fmt.Errorf("%w: heading must be at most 200 characters", ErrValidation)
	ErrDueDateInPast  = fmt.Errorf("%w: due date must be in the future", ErrValidation)
)

// Todo represents a single task record owned by exactly one user.
//
// ReminderSent transitions false to true at most once: either the reminder
// scheduler fired for the record, or completion made a reminder meaningless.
type Todo struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	Heading      string     `json:"heading"`
	Body         string     `json:"body"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	ReminderSent bool       `json:"reminder_sent"`
}

// NewTodo creates a new Todo for the given owner. dueAt is optional; when
// set it must lie in the future.
func NewTodo(ownerID uuid.UUID, heading, body string, dueAt *time.Time) (*Todo, error) {
	now := time.Now().UTC()
	todo := &Todo{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Heading:   heading,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
		DueAt:     dueAt,
	}

	if err := todo.Validate(now); err != nil {
		return nil, err
	}

	return todo, nil
}

// Validate checks the Todo's invariants. now is passed in so callers with an
// injected clock (and tests) validate against the same instant they use
// elsewhere.
func (t *Todo) Validate(now time.Time) error {
	if t.ID == uuid.Nil {
		return ErrEmptyTodoID
	}
	if t.OwnerID == uuid.Nil {
		return ErrEmptyOwnerID
	}
	if t.Heading == "" {
		return ErrEmptyHeading
	}
	if len(t.Heading) > 200 {
		return ErrHeadingTooLong
	}
	if t.DueAt != nil && !t.DueAt.After(now) {
		return ErrDueDateInPast
	}
	return nil
}

// ReminderThreshold returns the instant at which a reminder becomes due:
// 90% of the way from CreatedAt to DueAt. Returns false when the record has
// no due date.
func (t *Todo) ReminderThreshold() (time.Time, bool) {
	if t.DueAt == nil {
		return time.Time{}, false
	}
	total := t.DueAt.Sub(t.CreatedAt)
	return t.CreatedAt.Add(time.Duration(float64(total) * 0.9)), true
}
