package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redigo "github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmaloney/taskward/internal/cache"
	"github.com/cmaloney/taskward/internal/domain"
	"github.com/cmaloney/taskward/internal/platform/redis"
	"github.com/cmaloney/taskward/internal/service"
	"github.com/cmaloney/taskward/internal/store"
)

// fakeTodoStore is an in-memory TodoStore that counts reads so tests can
// tell cache hits from loader calls.
type fakeTodoStore struct {
	todos     map[uuid.UUID]*domain.Todo
	listCalls int
	getCalls  int
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{todos: make(map[uuid.UUID]*domain.Todo)}
}

func (f *fakeTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	cp := *todo
	f.todos[todo.ID] = &cp
	return nil
}

func (f *fakeTodoStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	f.getCalls++
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, store.ErrTodoNotFound
	}
	cp := *todo
	return &cp, nil
}

func (f *fakeTodoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Todo, error) {
	f.listCalls++
	var out []*domain.Todo
	for _, todo := range f.todos {
		if todo.OwnerID == ownerID {
			cp := *todo
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTodoStore) Update(ctx context.Context, ownerID, id uuid.UUID, upd store.TodoUpdate) (*domain.Todo, error) {
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, store.ErrTodoNotFound
	}
	if upd.Heading != nil {
		todo.Heading = *upd.Heading
	}
	if upd.Body != nil {
		todo.Body = *upd.Body
	}
	if upd.Completed != nil {
		todo.Completed = *upd.Completed
		if todo.Completed {
			todo.ReminderSent = true
		}
	}
	if upd.ClearDue {
		todo.DueAt = nil
	} else if upd.DueAt != nil {
		todo.DueAt = upd.DueAt
	}
	cp := *todo
	return &cp, nil
}

func (f *fakeTodoStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return store.ErrTodoNotFound
	}
	delete(f.todos, id)
	return nil
}

func (f *fakeTodoStore) ListReminderCandidates(ctx context.Context) ([]*domain.Todo, error) {
	var out []*domain.Todo
	for _, todo := range f.todos {
		if !todo.Completed && !todo.ReminderSent && todo.DueAt != nil {
			cp := *todo
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTodoStore) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	if todo, ok := f.todos[id]; ok {
		todo.ReminderSent = true
	}
	return nil
}

var _ store.TodoStore = (*fakeTodoStore)(nil)

func newTestService(t *testing.T) (*service.TodoService, *fakeTodoStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	addr := srv.Addr()
	pool := &redigo.Pool{
		Dial: func() (redigo.Conn, error) {
			return redigo.Dial("tcp", addr)
		},
	}
	client := redis.NewFromPool(pool)
	t.Cleanup(func() { _ = client.Close() })

	todos := newFakeTodoStore()
	svc := service.NewTodoService(todos, cache.New(client, nil), 5*time.Minute, nil)

	return svc, todos, srv
}

func TestTodoServiceListCaching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, todos, srv := newTestService(t)
	ownerID := uuid.New()

	created, err := svc.Create(ctx, ownerID, "Task one", "", nil)
	require.NoError(t, err)

	// First list loads from the store and populates the cache.
	list, err := svc.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 1, todos.listCalls)
	assert.True(t, srv.Exists(cache.TodoListKey(ownerID)))

	// Second list is served from cache.
	list, err = svc.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, todos.listCalls)
}

func TestTodoServiceCreateInvalidatesList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, todos, _ := newTestService(t)
	ownerID := uuid.New()

	_, err := svc.Create(ctx, ownerID, "Task one", "", nil)
	require.NoError(t, err)

	list, err := svc.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, todos.listCalls)

	// Creating another todo invalidates the cached list, so the next read
	// reflects it immediately instead of waiting out the TTL.
	_, err = svc.Create(ctx, ownerID, "Task two", "", nil)
	require.NoError(t, err)

	list, err = svc.List(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, todos.listCalls)
}

func TestTodoServiceGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("caches the single-record view", func(t *testing.T) {
		t.Parallel()

		svc, todos, _ := newTestService(t)
		ownerID := uuid.New()

		created, err := svc.Create(ctx, ownerID, "Task", "body", nil)
		require.NoError(t, err)

		got, err := svc.Get(ctx, ownerID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, 1, todos.getCalls)

		_, err = svc.Get(ctx, ownerID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, todos.getCalls)
	})

	t.Run("another user's record reads as not found even when cached", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)
		ownerID := uuid.New()

		created, err := svc.Create(ctx, ownerID, "Task", "", nil)
		require.NoError(t, err)

		// Warm the cache as the owner, then probe as someone else. The
		// single-record key is not owner-scoped, so the ownership check
		// must hold on the hit path too.
		_, err = svc.Get(ctx, ownerID, created.ID)
		require.NoError(t, err)

		_, err = svc.Get(ctx, uuid.New(), created.ID)
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
	})

	t.Run("missing record", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)
		_, err := svc.Get(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
	})
}

func TestTodoServiceUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stale views are invalidated before returning", func(t *testing.T) {
		t.Parallel()

		svc, _, srv := newTestService(t)
		ownerID := uuid.New()

		created, err := svc.Create(ctx, ownerID, "Before", "", nil)
		require.NoError(t, err)

		// Warm both views.
		_, err = svc.Get(ctx, ownerID, created.ID)
		require.NoError(t, err)
		_, err = svc.List(ctx, ownerID)
		require.NoError(t, err)
		require.True(t, srv.Exists(cache.TodoKey(created.ID)))
		require.True(t, srv.Exists(cache.TodoListKey(ownerID)))

		heading := "After"
		updated, err := svc.Update(ctx, ownerID, created.ID, store.TodoUpdate{Heading: &heading})
		require.NoError(t, err)
		assert.Equal(t, "After", updated.Heading)

		assert.False(t, srv.Exists(cache.TodoKey(created.ID)))
		assert.False(t, srv.Exists(cache.TodoListKey(ownerID)))

		// The next read sees the new heading.
		got, err := svc.Get(ctx, ownerID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Heading)
	})

	t.Run("due date in the past rejected", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)
		ownerID := uuid.New()

		created, err := svc.Create(ctx, ownerID, "Task", "", nil)
		require.NoError(t, err)

		past := time.Now().Add(-time.Hour)
		_, err = svc.Update(ctx, ownerID, created.ID, store.TodoUpdate{DueAt: &past})
		assert.ErrorIs(t, err, domain.ErrDueDateInPast)
	})

	t.Run("completing a record suppresses its reminder", func(t *testing.T) {
		t.Parallel()

		svc, todos, _ := newTestService(t)
		ownerID := uuid.New()
		due := time.Now().Add(time.Hour)

		created, err := svc.Create(ctx, ownerID, "Task", "", &due)
		require.NoError(t, err)

		completed := true
		updated, err := svc.Update(ctx, ownerID, created.ID, store.TodoUpdate{Completed: &completed})
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.True(t, updated.ReminderSent)

		candidates, err := todos.ListReminderCandidates(ctx)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestTodoServiceDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, srv := newTestService(t)
	ownerID := uuid.New()

	created, err := svc.Create(ctx, ownerID, "Task", "", nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, ownerID, created.ID)
	require.NoError(t, err)
	require.True(t, srv.Exists(cache.TodoKey(created.ID)))

	require.NoError(t, svc.Delete(ctx, ownerID, created.ID))
	assert.False(t, srv.Exists(cache.TodoKey(created.ID)))

	_, err = svc.Get(ctx, ownerID, created.ID)
	assert.ErrorIs(t, err, store.ErrTodoNotFound)
}
