package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cmaloney/taskward/internal/domain"
	"github.com/cmaloney/taskward/internal/store"
)

const todoColumns = `id, owner_id, heading, body, completed, created_at, updated_at, due_at, reminder_sent`

// TodoStore implements the store.TodoStore interface using PostgreSQL.
// All owner-scoped statements carry "owner_id = $n" in their WHERE clause so
// exclusive ownership is enforced by the store itself, not by callers.
type TodoStore struct {
	db store.DBTX
}

// NewTodoStore creates a new PostgreSQL implementation of store.TodoStore.
func NewTodoStore(db store.DBTX) *TodoStore {
	return &TodoStore{db: db}
}

var _ store.TodoStore = (*TodoStore)(nil)

// Create implements store.TodoStore.Create.
func (s *TodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		todo.ID, todo.OwnerID, todo.Heading, todo.Body, todo.Completed,
		todo.CreatedAt, todo.UpdatedAt, todo.DueAt, todo.ReminderSent)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// GetByID implements store.TodoStore.GetByID.
func (s *TodoStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1 AND owner_id = $2
	`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// ListByOwner implements store.TodoStore.ListByOwner.
func (s *TodoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTodos(rows)
}

// Update implements store.TodoStore.Update. The statement folds every
// optional field change into COALESCE-style expressions so the whole update
// is a single round trip, and marks reminder_sent alongside completion.
func (s *TodoStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	upd store.TodoUpdate,
) (*domain.Todo, error) {
	query := `
		UPDATE todos SET
			heading       = COALESCE($3::varchar, heading),
			body          = COALESCE($4::text, body),
			completed     = COALESCE($5::boolean, completed),
			due_at        = CASE WHEN $7 THEN NULL ELSE COALESCE($6::timestamptz, due_at) END,
			reminder_sent = reminder_sent OR COALESCE($5::boolean, FALSE),
			updated_at    = $8
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + todoColumns + `
	`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query,
		id, ownerID, upd.Heading, upd.Body, upd.Completed, upd.DueAt, upd.ClearDue,
		time.Now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

// Delete implements store.TodoStore.Delete.
func (s *TodoStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM todos WHERE id = $1 AND owner_id = $2`

	res, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrTodoNotFound
	}

	return nil
}

// ListReminderCandidates implements store.TodoStore.ListReminderCandidates.
func (s *TodoStore) ListReminderCandidates(ctx context.Context) ([]*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE completed = FALSE AND reminder_sent = FALSE AND due_at IS NOT NULL
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTodos(rows)
}

// MarkReminderSent implements store.TodoStore.MarkReminderSent. The WHERE
// clause makes the flip conditional, so a record that was completed or
// already marked in the meantime is left alone.
func (s *TodoStore) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE todos SET reminder_sent = TRUE
		WHERE id = $1 AND reminder_sent = FALSE
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	todo := &domain.Todo{}
	var dueAt sql.NullTime
	err := row.Scan(
		&todo.ID, &todo.OwnerID, &todo.Heading, &todo.Body, &todo.Completed,
		&todo.CreatedAt, &todo.UpdatedAt, &dueAt, &todo.ReminderSent)
	if err != nil {
		return nil, err
	}
	if dueAt.Valid {
		t := dueAt.Time
		todo.DueAt = &t
	}
	return todo, nil
}

func collectTodos(rows *sql.Rows) ([]*domain.Todo, error) {
	todos := make([]*domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}
