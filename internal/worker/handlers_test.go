package worker

import (
	"context"
	"testing"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/evermore-health/vitalsync/internal/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTaskStore struct {
	GetFn func(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	succeeded []uuid.UUID
}

var _ store.TaskStore = (*mockTaskStore)(nil)

func (m *mockTaskStore) Create(ctx context.Context, t *domain.Task) error { return nil }

func (m *mockTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskStore) ClaimNext(ctx context.Context, queue string) (*domain.Task, error) {
	return nil, store.ErrNoEligibleTask
}

func (m *mockTaskStore) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	m.succeeded = append(m.succeeded, id)
	return nil
}

func (m *mockTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return nil
}

func taskWith(t *testing.T, queue, payload string) *domain.Task {
	t.Helper()

	created, err := domain.NewTask(queue, "test-task", []byte(payload), nil)
	require.NoError(t, err)
	return created
}

func TestNotificationHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid payload succeeds the task", func(t *testing.T) {
		t.Parallel()

		claimed := taskWith(t, task.QueueNotifications,
			`{"userId":"`+userID.String()+`","title":"Weekly recap","body":"Strain is trending up"}`)
		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return claimed, nil
			},
		}

		handler := NewNotificationHandler(tasks)
		require.NoError(t, handler(context.Background(), claimed.ID))
		assert.Equal(t, []uuid.UUID{claimed.ID}, tasks.succeeded)
	})

	t.Run("malformed payload fails the task", func(t *testing.T) {
		t.Parallel()

		claimed := taskWith(t, task.QueueNotifications, `{"title":"no user"}`)
		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return claimed, nil
			},
		}

		handler := NewNotificationHandler(tasks)
		err := handler(context.Background(), claimed.ID)
		assert.ErrorIs(t, err, task.ErrMalformedPayload)
		assert.Empty(t, tasks.succeeded)
	})
}

func TestInsightHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid payload succeeds the task", func(t *testing.T) {
		t.Parallel()

		claimed := taskWith(t, task.QueueInsights,
			`{"userId":"`+userID.String()+`","kind":"recovery-trend"}`)
		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return claimed, nil
			},
		}

		handler := NewInsightHandler(tasks)
		require.NoError(t, handler(context.Background(), claimed.ID))
		assert.Equal(t, []uuid.UUID{claimed.ID}, tasks.succeeded)
	})

	t.Run("missing task fails", func(t *testing.T) {
		t.Parallel()

		tasks := &mockTaskStore{}
		handler := NewInsightHandler(tasks)
		err := handler(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}
