package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncPayload(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()

		payload, err := ParseSyncPayload([]byte(
			`{"userId":"` + userID.String() + `","externalUserId":"whoop-123","reason":"scheduled"}`,
		))
		require.NoError(t, err)
		assert.Equal(t, userID, payload.UserID)
		assert.Equal(t, "whoop-123", payload.ExternalUserID)
		assert.Equal(t, ReasonScheduled, payload.Reason)
	})

	t.Run("all reasons accepted", func(t *testing.T) {
		t.Parallel()

		for _, reason := range []SyncReason{ReasonInitialLink, ReasonScheduled, ReasonManualRetry, ReasonWebhook} {
			_, err := ParseSyncPayload([]byte(
				`{"userId":"` + userID.String() + `","externalUserId":"whoop-123","reason":"` + string(reason) + `"}`,
			))
			assert.NoError(t, err, "reason %q should parse", reason)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()

		_, err := ParseSyncPayload(nil)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("not JSON", func(t *testing.T) {
		t.Parallel()

		_, err := ParseSyncPayload([]byte(`user=123`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("missing user ID", func(t *testing.T) {
		t.Parallel()

		_, err := ParseSyncPayload([]byte(`{"externalUserId":"whoop-123","reason":"scheduled"}`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("unknown reason", func(t *testing.T) {
		t.Parallel()

		_, err := ParseSyncPayload([]byte(
			`{"userId":"` + userID.String() + `","externalUserId":"whoop-123","reason":"cron"}`,
		))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestParseNotificationPayload(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	payload, err := ParseNotificationPayload([]byte(
		`{"userId":"` + userID.String() + `","title":"Weekly recap","body":"Your strain is up"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, "Weekly recap", payload.Title)

	_, err = ParseNotificationPayload([]byte(`{"userId":"` + userID.String() + `"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload, "missing title should fail")
}

func TestParseInsightPayload(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	payload, err := ParseInsightPayload([]byte(
		`{"userId":"` + userID.String() + `","kind":"recovery-trend"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, "recovery-trend", payload.Kind)

	_, err = ParseInsightPayload([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	noop := Handler(func(ctx context.Context, taskID uuid.UUID) error { return nil })

	require.NoError(t, registry.Register(QueueSync, noop))

	t.Run("duplicate registration fails", func(t *testing.T) {
		assert.Error(t, registry.Register(QueueSync, noop))
	})

	t.Run("empty queue name fails", func(t *testing.T) {
		assert.Error(t, registry.Register("", noop))
	})

	t.Run("nil handler fails", func(t *testing.T) {
		assert.Error(t, registry.Register(QueueNotifications, nil))
	})

	t.Run("lookup", func(t *testing.T) {
		_, ok := registry.Handler(QueueSync)
		assert.True(t, ok)

		_, ok = registry.Handler("unregistered")
		assert.False(t, ok)
	})

	t.Run("queues sorted", func(t *testing.T) {
		require.NoError(t, registry.Register(QueueInsights, noop))
		assert.Equal(t, []string{QueueInsights, QueueSync}, registry.Queues())
	})
}
