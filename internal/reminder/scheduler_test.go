package reminder

import (
	"context"
	"errors"
	"sync"
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
	"github.com/cmaloney/taskward/internal/store"
)

type fakeTodoStore struct {
	mu     sync.Mutex
	todos  map[uuid.UUID]*domain.Todo
	marked []uuid.UUID
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{todos: make(map[uuid.UUID]*domain.Todo)}
}

func (f *fakeTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *todo
	f.todos[todo.ID] = &cp
	return nil
}

func (f *fakeTodoStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	return nil, store.ErrTodoNotFound
}

func (f *fakeTodoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Todo, error) {
	return nil, nil
}

func (f *fakeTodoStore) Update(ctx context.Context, ownerID, id uuid.UUID, upd store.TodoUpdate) (*domain.Todo, error) {
	return nil, store.ErrTodoNotFound
}

func (f *fakeTodoStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return store.ErrTodoNotFound
}

func (f *fakeTodoStore) ListReminderCandidates(ctx context.Context) ([]*domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.mu.Lock()
	defer f.mu.Unlock()
	if todo, ok := f.todos[id]; ok && !todo.ReminderSent {
		todo.ReminderSent = true
		f.marked = append(f.marked, id)
	}
	return nil
}

var _ store.TodoStore = (*fakeTodoStore)(nil)

type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}

var _ store.UserStore = (*fakeUserStore)(nil)

type sentMail struct {
	recipient string
	subject   string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{recipient: recipient, subject: subject})
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixture struct {
	scheduler *Scheduler
	todos     *fakeTodoStore
	mailer    *fakeMailer
	srv       *miniredis.Miniredis
	owner     *domain.User
}

func newFixture(t *testing.T, now time.Time) *fixture {
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

	owner := &domain.User{
		ID:    uuid.New(),
		Name:  "Alice",
		Email: "alice@example.com",
	}

	todos := newFakeTodoStore()
	mailer := &fakeMailer{}
	users := &fakeUserStore{users: map[uuid.UUID]*domain.User{owner.ID: owner}}

	s := New(todos, users, mailer, cache.New(client, nil), time.Minute, nil)
	s.timeFunc = func() time.Time { return now }

	return &fixture{scheduler: s, todos: todos, mailer: mailer, srv: srv, owner: owner}
}

// addTodo seeds a record with the given created/due pair.
func (fx *fixture) addTodo(t *testing.T, created, due time.Time) *domain.Todo {
	t.Helper()

	todo := &domain.Todo{
		ID:        uuid.New(),
		OwnerID:   fx.owner.ID,
		Heading:   "Finish report",
		Body:      "quarterly numbers",
		CreatedAt: created,
		UpdatedAt: created,
		DueAt:     &due,
	}
	require.NoError(t, fx.todos.Create(context.Background(), todo))
	return todo
}

func TestSchedulerRunOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fires once the threshold is crossed", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		// Created 9h30m ago, due in 30m: 95% elapsed, past the 90% mark.
		todo := fx.addTodo(t, now.Add(-9*time.Hour-30*time.Minute), now.Add(30*time.Minute))

		fx.scheduler.RunOnce(context.Background())

		require.Equal(t, 1, fx.mailer.sentCount())
		assert.Equal(t, "alice@example.com", fx.mailer.sent[0].recipient)
		assert.Contains(t, fx.mailer.sent[0].subject, "Finish report")
		assert.Equal(t, []uuid.UUID{todo.ID}, fx.todos.marked)
	})

	t.Run("does not fire before the threshold", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		// Created 1h ago, due in 9h: only 10% elapsed.
		fx.addTodo(t, now.Add(-time.Hour), now.Add(9*time.Hour))

		fx.scheduler.RunOnce(context.Background())

		assert.Zero(t, fx.mailer.sentCount())
		assert.Empty(t, fx.todos.marked)
	})

	t.Run("does not fire for overdue records", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		fx.addTodo(t, now.Add(-10*time.Hour), now.Add(-time.Hour))

		fx.scheduler.RunOnce(context.Background())

		assert.Zero(t, fx.mailer.sentCount())
	})

	t.Run("fires at most once per record", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		fx.addTodo(t, now.Add(-9*time.Hour-30*time.Minute), now.Add(30*time.Minute))

		fx.scheduler.RunOnce(context.Background())
		fx.scheduler.RunOnce(context.Background())

		assert.Equal(t, 1, fx.mailer.sentCount())
	})

	t.Run("send failure leaves the record eligible for retry", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		fx.addTodo(t, now.Add(-9*time.Hour-30*time.Minute), now.Add(30*time.Minute))
		fx.mailer.err = errors.New("smtp down")

		fx.scheduler.RunOnce(context.Background())
		assert.Empty(t, fx.todos.marked)

		// Once the mailer recovers, the next run delivers.
		fx.mailer.err = nil
		fx.scheduler.RunOnce(context.Background())
		assert.Equal(t, 1, fx.mailer.sentCount())
		assert.Len(t, fx.todos.marked, 1)
	})

	t.Run("one bad record does not block the rest", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		orphan := fx.addTodo(t, now.Add(-9*time.Hour-30*time.Minute), now.Add(30*time.Minute))
		// Point the stored record at a nonexistent owner so its lookup fails.
		fx.todos.todos[orphan.ID].OwnerID = uuid.New()

		fx.addTodo(t, now.Add(-9*time.Hour-30*time.Minute), now.Add(30*time.Minute))

		fx.scheduler.RunOnce(context.Background())

		assert.Equal(t, 1, fx.mailer.sentCount())
	})

	t.Run("invalidates cached views after marking", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, now)
		todo := fx.addTodo(t, now.Add(-9*time.Hour-30*time.Minute), now.Add(30*time.Minute))

		// Pretend the request path cached both views earlier.
		require.NoError(t, fx.srv.Set(cache.TodoKey(todo.ID), `{"v":1,"data":{}}`))
		require.NoError(t, fx.srv.Set(cache.TodoListKey(fx.owner.ID), `{"v":1,"data":[]}`))

		fx.scheduler.RunOnce(context.Background())

		assert.False(t, fx.srv.Exists(cache.TodoKey(todo.ID)))
		assert.False(t, fx.srv.Exists(cache.TodoListKey(fx.owner.ID)))
	})
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, time.Now())

	fx.scheduler.Start(context.Background())
	fx.scheduler.Stop()
}
