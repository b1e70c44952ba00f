package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for PostgresCycleStore, gated on TEST_DATABASE_URL. The
// other record-family stores share the same upsert and latest-timestamp
// shape, so cycles stand in for all five.
func TestPostgresCycleStore_Integration(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cycles := NewPostgresCycleStore(db)

	floatPtr := func(v float64) *float64 { return &v }
	timePtr := func(v time.Time) *time.Time { return &v }

	newCycle := func(userID uuid.UUID, externalID string, start time.Time, strain float64) *domain.Cycle {
		return &domain.Cycle{
			ExternalID:     externalID,
			UserID:         userID,
			ExternalUserID: "whoop-user-1",
			StartTime:      timePtr(start),
			EndTime:        timePtr(start.Add(23 * time.Hour)),
			Strain:         floatPtr(strain),
			Raw:            json.RawMessage(`{"id":"` + externalID + `"}`),
		}
	}

	t.Run("LatestTimestampWithoutRecords", func(t *testing.T) {
		latest, err := cycles.LatestTimestamp(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("UpsertOverwritesByExternalID", func(t *testing.T) {
		userID := uuid.New()
		externalID := "itest-cycle-" + uuid.NewString()
		start := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)

		require.NoError(t, cycles.Upsert(ctx, newCycle(userID, externalID, start, 10.5)))

		// Re-ingesting the same external id with amended values must
		// overwrite the row, not add one.
		require.NoError(t, cycles.Upsert(ctx, newCycle(userID, externalID, start, 12.75)))

		var count int
		var strain float64
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*), MAX(strain) FROM cycles WHERE external_id = $1",
			externalID,
		).Scan(&count, &strain)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 12.75, strain)
	})

	t.Run("LatestTimestampReturnsNewestStart", func(t *testing.T) {
		userID := uuid.New()
		older := time.Date(2026, 8, 18, 6, 0, 0, 0, time.UTC)
		newer := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)

		require.NoError(t, cycles.Upsert(ctx, newCycle(userID, "itest-cycle-"+uuid.NewString(), newer, 9.0)))
		require.NoError(t, cycles.Upsert(ctx, newCycle(userID, "itest-cycle-"+uuid.NewString(), older, 8.0)))

		latest, err := cycles.LatestTimestamp(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.Equal(newer))
	})
}
