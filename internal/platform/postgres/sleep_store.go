package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// PostgresSleepStore implements the store.SleepStore interface using PostgreSQL.
type PostgresSleepStore struct {
	db store.DBTX
}

var _ store.SleepStore = (*PostgresSleepStore)(nil)

// NewPostgresSleepStore creates a new PostgresSleepStore.
func NewPostgresSleepStore(db store.DBTX) *PostgresSleepStore {
	return &PostgresSleepStore{db: db}
}

// Upsert inserts the sleep or overwrites the existing row with the same
// external ID.
func (s *PostgresSleepStore) Upsert(ctx context.Context, sleep *domain.Sleep) error {
	query := `
		INSERT INTO sleeps (external_id, user_id, external_user_id, start_time,
			end_time, duration_minutes, efficiency_pct, performance_pct,
			respiratory_rate, raw, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (external_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			external_user_id = EXCLUDED.external_user_id,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			duration_minutes = EXCLUDED.duration_minutes,
			efficiency_pct = EXCLUDED.efficiency_pct,
			performance_pct = EXCLUDED.performance_pct,
			respiratory_rate = EXCLUDED.respiratory_rate,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		sleep.ExternalID,
		sleep.UserID,
		sleep.ExternalUserID,
		sleep.StartTime,
		sleep.EndTime,
		sleep.DurationMinutes,
		sleep.EfficiencyPct,
		sleep.PerformancePct,
		sleep.RespiratoryRate,
		sleep.Raw,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sleep %s: %w", sleep.ExternalID, MapError(err))
	}

	return nil
}

// LatestTimestamp returns the start time of the user's most recent sleep.
func (s *PostgresSleepStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return latestTimestamp(ctx, s.db, "sleeps", "start_time", userID)
}
