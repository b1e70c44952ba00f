package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// PostgresCycleStore implements the store.CycleStore interface using PostgreSQL.
type PostgresCycleStore struct {
	db store.DBTX
}

var _ store.CycleStore = (*PostgresCycleStore)(nil)

// NewPostgresCycleStore creates a new PostgresCycleStore.
func NewPostgresCycleStore(db store.DBTX) *PostgresCycleStore {
	return &PostgresCycleStore{db: db}
}

// Upsert inserts the cycle or overwrites the existing row keyed by the
// provider-assigned external ID, so re-ingesting the same record never
// duplicates rows.
func (s *PostgresCycleStore) Upsert(ctx context.Context, cycle *domain.Cycle) error {
	query := `
		INSERT INTO cycles (external_id, user_id, external_user_id, start_time,
			end_time, strain, kilojoules, avg_heart_rate, max_heart_rate, raw,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (external_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			external_user_id = EXCLUDED.external_user_id,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			strain = EXCLUDED.strain,
			kilojoules = EXCLUDED.kilojoules,
			avg_heart_rate = EXCLUDED.avg_heart_rate,
			max_heart_rate = EXCLUDED.max_heart_rate,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		cycle.ExternalID,
		cycle.UserID,
		cycle.ExternalUserID,
		cycle.StartTime,
		cycle.EndTime,
		cycle.Strain,
		cycle.Kilojoules,
		cycle.AvgHeartRate,
		cycle.MaxHeartRate,
		cycle.Raw,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cycle %s: %w", cycle.ExternalID, MapError(err))
	}

	return nil
}

// LatestTimestamp returns the start time of the user's most recent cycle.
func (s *PostgresCycleStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return latestTimestamp(ctx, s.db, "cycles", "start_time", userID)
}
