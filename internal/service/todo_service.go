// Package service contains the application services that sit between the
// HTTP handlers and the stores, and own the cross-cutting cache discipline:
// reads go through the read-through cache, and every mutation invalidates
// all keys that could hold a stale view before reporting success.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cmaloney/taskward/internal/cache"
	"github.com/cmaloney/taskward/internal/domain"
	"github.com/cmaloney/taskward/internal/store"
)

// TodoService implements the todo CRUD operations.
type TodoService struct {
	todos    store.TodoStore
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewTodoService creates a TodoService. cacheTTL is the freshness bound for
// list and single-record views.
func NewTodoService(
	todos store.TodoStore,
	c *cache.Cache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *TodoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoService{
		todos:    todos,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger.With(slog.String("component", "todo_service")),
		timeFunc: time.Now,
	}
}

// Create validates and stores a new todo, then invalidates the owner's list
// view so the next list read reflects it.
func (s *TodoService) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	heading, body string,
	dueAt *time.Time,
) (*domain.Todo, error) {
	todo, err := domain.NewTodo(ownerID, heading, body, dueAt)
	if err != nil {
		return nil, err
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.TodoListKey(ownerID))

	return todo, nil
}

// List returns all todos of the owner through the read-through cache.
func (s *TodoService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Todo, error) {
	var todos []*domain.Todo
	err := s.cache.GetOrLoad(ctx, cache.TodoListKey(ownerID), s.cacheTTL, &todos,
		func(ctx context.Context) (any, error) {
			return s.todos.ListByOwner(ctx, ownerID)
		})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// Get returns a single todo through the read-through cache. The cached view
// is keyed by record ID alone, so ownership is re-checked after decode; a
// record owned by someone else reads as not found.
func (s *TodoService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	var todo domain.Todo
	err := s.cache.GetOrLoad(ctx, cache.TodoKey(id), s.cacheTTL, &todo,
		func(ctx context.Context) (any, error) {
			return s.todos.GetByID(ctx, ownerID, id)
		})
	if err != nil {
		return nil, err
	}
	if todo.OwnerID != ownerID {
		return nil, store.ErrTodoNotFound
	}
	return &todo, nil
}

// Update applies field changes to a todo and invalidates both views that
// could hold a stale copy before returning.
func (s *TodoService) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	upd store.TodoUpdate,
) (*domain.Todo, error) {
	if upd.DueAt != nil && !upd.DueAt.After(s.timeFunc()) {
		return nil, domain.ErrDueDateInPast
	}

	todo, err := s.todos.Update(ctx, ownerID, id, upd)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.TodoKey(id), cache.TodoListKey(ownerID))

	return todo, nil
}

// Delete removes a todo and invalidates both views before returning.
func (s *TodoService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.todos.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.TodoKey(id), cache.TodoListKey(ownerID))

	return nil
}
