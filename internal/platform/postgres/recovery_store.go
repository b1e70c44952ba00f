package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// PostgresRecoveryStore implements the store.RecoveryStore interface using
// PostgreSQL. The uniqueness key is the provider-assigned recovery record id;
// the originating cycle and sleep ids are plain attributes.
type PostgresRecoveryStore struct {
	db store.DBTX
}

var _ store.RecoveryStore = (*PostgresRecoveryStore)(nil)

// NewPostgresRecoveryStore creates a new PostgresRecoveryStore.
func NewPostgresRecoveryStore(db store.DBTX) *PostgresRecoveryStore {
	return &PostgresRecoveryStore{db: db}
}

// Upsert inserts the recovery or overwrites the existing row with the same
// external ID.
func (s *PostgresRecoveryStore) Upsert(ctx context.Context, recovery *domain.Recovery) error {
	query := `
		INSERT INTO recoveries (external_id, user_id, external_user_id,
			cycle_external_id, sleep_external_id, recorded_at, score,
			resting_heart_rate, hrv_milli, spo2_pct, skin_temp_celsius, raw,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (external_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			external_user_id = EXCLUDED.external_user_id,
			cycle_external_id = EXCLUDED.cycle_external_id,
			sleep_external_id = EXCLUDED.sleep_external_id,
			recorded_at = EXCLUDED.recorded_at,
			score = EXCLUDED.score,
			resting_heart_rate = EXCLUDED.resting_heart_rate,
			hrv_milli = EXCLUDED.hrv_milli,
			spo2_pct = EXCLUDED.spo2_pct,
			skin_temp_celsius = EXCLUDED.skin_temp_celsius,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		recovery.ExternalID,
		recovery.UserID,
		recovery.ExternalUserID,
		recovery.CycleExternalID,
		recovery.SleepExternalID,
		recovery.RecordedAt,
		recovery.Score,
		recovery.RestingHeartRate,
		recovery.HRVMilli,
		recovery.SpO2Pct,
		recovery.SkinTempCelsius,
		recovery.Raw,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert recovery %s: %w", recovery.ExternalID, MapError(err))
	}

	return nil
}

// LatestTimestamp returns the recorded time of the user's most recent recovery.
func (s *PostgresRecoveryStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return latestTimestamp(ctx, s.db, "recoveries", "recorded_at", userID)
}
