package task

import (
	"context"
	"sync"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// memTaskStore is an in-memory store.TaskStore whose ClaimNext is atomic
// under a mutex, mirroring the database's claim transaction. It lets the
// dispatcher tests exercise claim exclusivity without a database.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
	order []uuid.UUID

	// ClaimNextFn, when set, overrides ClaimNext entirely.
	ClaimNextFn func(ctx context.Context, queue string) (*domain.Task, error)
}

var _ store.TaskStore = (*memTaskStore)(nil)

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

func (s *memTaskStore) Create(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *t
	s.tasks[t.ID] = &copied
	s.order = append(s.order, t.ID)
	return nil
}

func (s *memTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memTaskStore) ClaimNext(ctx context.Context, queue string) (*domain.Task, error) {
	if s.ClaimNextFn != nil {
		return s.ClaimNextFn(ctx, queue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, id := range s.order {
		t := s.tasks[id]
		if t.Queue != queue || t.Status != domain.TaskStatusPending {
			continue
		}
		if t.ScheduleTime != nil && t.ScheduleTime.After(now) {
			continue
		}

		t.Status = domain.TaskStatusDispatched
		copied := *t
		return &copied, nil
	}

	return nil, store.ErrNoEligibleTask
}

func (s *memTaskStore) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	return s.recordOutcome(id, domain.TaskStatusSucceeded, "")
}

func (s *memTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return s.recordOutcome(id, domain.TaskStatusFailed, errorMessage)
}

func (s *memTaskStore) recordOutcome(id uuid.UUID, status domain.TaskStatus, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}

	now := time.Now().UTC()
	t.Status = status
	t.ErrorMessage = errorMessage
	t.AttemptCount++
	if t.FirstAttemptAt == nil {
		t.FirstAttemptAt = &now
	}
	t.LastAttemptAt = &now
	return nil
}

// fakeClock records sleeps instead of waiting. Each Sleep still yields
// briefly so spinning loops don't starve the scheduler during tests.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-time.After(time.Millisecond):
	}
}

func (c *fakeClock) recordedSleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}
