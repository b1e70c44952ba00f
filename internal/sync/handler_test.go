package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/evermore-health/vitalsync/internal/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTaskStore implements store.TaskStore for handler tests.
type mockTaskStore struct {
	GetFn           func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	MarkSucceededFn func(ctx context.Context, id uuid.UUID) error

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
	if m.MarkSucceededFn != nil {
		return m.MarkSucceededFn(ctx, id)
	}
	m.succeeded = append(m.succeeded, id)
	return nil
}

func (m *mockTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return nil
}

func syncTask(t *testing.T, payload string) *domain.Task {
	t.Helper()

	created, err := domain.NewTask(task.QueueSync, "sync-wearable-data", []byte(payload), nil)
	require.NoError(t, err)
	return created
}

func TestSyncTaskHandler(t *testing.T) {
	t.Parallel()

	t.Run("runs a pass and marks the task succeeded", func(t *testing.T) {
		t.Parallel()

		f := newEngineFixture(t)
		claimed := syncTask(t, `{"userId":"`+f.integration.UserID.String()+`","externalUserId":"whoop-user-1","reason":"scheduled"}`)

		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				require.Equal(t, claimed.ID, id)
				return claimed, nil
			},
		}

		handler := NewTaskHandler(tasks, f.integrations, f.engine(t))
		require.NoError(t, handler(context.Background(), claimed.ID))

		assert.Equal(t, []uuid.UUID{claimed.ID}, tasks.succeeded)
		assert.NotNil(t, f.integrations.syncedAt())
	})

	t.Run("malformed payload fails the task", func(t *testing.T) {
		t.Parallel()

		f := newEngineFixture(t)
		claimed := syncTask(t, `{"reason":"scheduled"}`)

		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return claimed, nil
			},
		}

		handler := NewTaskHandler(tasks, f.integrations, f.engine(t))
		err := handler(context.Background(), claimed.ID)
		assert.ErrorIs(t, err, task.ErrMalformedPayload)
		assert.Empty(t, tasks.succeeded)
	})

	t.Run("missing integration fails the task", func(t *testing.T) {
		t.Parallel()

		f := newEngineFixture(t)
		// A user id with no linked integration.
		claimed := syncTask(t, `{"userId":"`+uuid.New().String()+`","externalUserId":"whoop-user-1","reason":"initial-link"}`)

		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return claimed, nil
			},
		}

		handler := NewTaskHandler(tasks, f.integrations, f.engine(t))
		err := handler(context.Background(), claimed.ID)
		assert.ErrorIs(t, err, store.ErrIntegrationNotFound)
		assert.Empty(t, tasks.succeeded)
	})

	t.Run("engine failure propagates", func(t *testing.T) {
		t.Parallel()

		f := newEngineFixture(t)
		f.tokens.EnsureAccessTokenFn = func(ctx context.Context, integration *domain.Integration) (string, error) {
			return "", errors.New("refresh rejected")
		}

		claimed := syncTask(t, `{"userId":"`+f.integration.UserID.String()+`","externalUserId":"whoop-user-1","reason":"manual-retry"}`)
		tasks := &mockTaskStore{
			GetFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return claimed, nil
			},
		}

		handler := NewTaskHandler(tasks, f.integrations, f.engine(t))
		err := handler(context.Background(), claimed.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credential resolution failed")
		assert.Empty(t, tasks.succeeded)
	})
}
