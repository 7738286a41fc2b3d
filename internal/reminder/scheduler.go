// Package reminder implements the background scheduler that notifies users
// when a todo crosses 90% of its created-to-due interval.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmaloney/taskward/internal/cache"
	"github.com/cmaloney/taskward/internal/domain"
	"github.com/cmaloney/taskward/internal/platform/mail"
	"github.com/cmaloney/taskward/internal/store"
)

// sendTimeout bounds each individual notification attempt so one slow send
// cannot stall the rest of a run.
const sendTimeout = 15 * time.Second

// Scheduler periodically scans outstanding todos and fires at most one
// reminder per record.
//
// Ordering is deliberate: the notification is sent first and reminder_sent
// is marked second. A crash between the two can in principle double-send on
// the next run; reversing the order would instead risk never sending, which
// is the worse failure for a reminder. Accepted and documented, not a bug.
//
// The scan-then-mark pattern is not safe when several scheduler instances
// run concurrently: two instances can pick up the same record in the same
// interval. Deployments with more than one instance need either a single
// active scheduler or a claim step (a conditional "sending" mark before the
// send).
type Scheduler struct {
	todos    store.TodoStore
	users    store.UserStore
	mailer   mail.Mailer
	views    *cache.Cache
	interval time.Duration
	logger   *slog.Logger
	timeFunc func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler scanning every interval. views is invalidated
// whenever a record's reminder_sent flips, since the scheduler mutates
// records outside the request path.
func New(
	todos store.TodoStore,
	users store.UserStore,
	mailer mail.Mailer,
	views *cache.Cache,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		todos:    todos,
		users:    users,
		mailer:   mailer,
		views:    views,
		interval: interval,
		logger:   logger.With(slog.String("component", "reminder_scheduler")),
		timeFunc: time.Now,
	}
}

// Start launches the background loop. The scheduler is owned by the process
// lifecycle: started at boot, stopped via Stop during shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Info("reminder scheduler started", "interval", s.interval.String())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("reminder scheduler stopping")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce performs a single scan. Exported so tests (and operational
// tooling) can drive the scheduler without the timer.
func (s *Scheduler) RunOnce(ctx context.Context) {
	candidates, err := s.todos.ListReminderCandidates(ctx)
	if err != nil {
		s.logger.Error("failed to list reminder candidates", "error", err)
		return
	}

	sent := 0
	for _, todo := range candidates {
		if err := ctx.Err(); err != nil {
			return
		}
		if s.remind(ctx, todo) {
			sent++
		}
	}

	s.logger.Info("reminder scan complete", "candidates", len(candidates), "sent", sent)
}

// remind evaluates one candidate and reports whether a reminder was
// delivered. Failures are logged per record and never abort the run.
func (s *Scheduler) remind(ctx context.Context, todo *domain.Todo) bool {
	threshold, ok := todo.ReminderThreshold()
	if !ok {
		return false
	}

	// One-sided threshold: fire only inside [threshold, due). Records
	// already past due are silently skipped; there are no retroactive
	// reminders.
	now := s.timeFunc()
	if now.Before(threshold) || !now.Before(*todo.DueAt) {
		return false
	}

	owner, err := s.users.GetByID(ctx, todo.OwnerID)
	if err != nil {
		s.logger.Error("failed to resolve todo owner",
			"todo_id", todo.ID, "owner_id", todo.OwnerID, "error", err)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	subject := fmt.Sprintf("Reminder: %q is due soon", todo.Heading)
	body := reminderBody(owner.Name, todo)

	if err := s.mailer.Send(sendCtx, owner.Email, subject, body); err != nil {
		// reminder_sent stays false so the next run retries.
		s.logger.Error("failed to send reminder", "todo_id", todo.ID, "error", err)
		return false
	}

	if err := s.todos.MarkReminderSent(ctx, todo.ID); err != nil {
		s.logger.Error("failed to mark reminder sent; a duplicate may follow",
			"todo_id", todo.ID, "error", err)
		return true
	}

	s.views.Invalidate(ctx, cache.TodoKey(todo.ID), cache.TodoListKey(todo.OwnerID))

	s.logger.Info("reminder sent", "todo_id", todo.ID, "owner_id", todo.OwnerID)
	return true
}

func reminderBody(name string, todo *domain.Todo) string {
	return fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your task %q is approaching its deadline:\n\n"+
			"  %s\n\n"+
			"Due: %s\n\n"+
			"Most of the scheduled time has passed. Consider wrapping it up.\n",
		name, todo.Heading, todo.Body, todo.DueAt.Format(time.RFC1123))
}
