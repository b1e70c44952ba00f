package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// PostgresBodyMeasurementStore implements the store.BodyMeasurementStore
// interface using PostgreSQL.
type PostgresBodyMeasurementStore struct {
	db store.DBTX
}

var _ store.BodyMeasurementStore = (*PostgresBodyMeasurementStore)(nil)

// NewPostgresBodyMeasurementStore creates a new PostgresBodyMeasurementStore.
func NewPostgresBodyMeasurementStore(db store.DBTX) *PostgresBodyMeasurementStore {
	return &PostgresBodyMeasurementStore{db: db}
}

// Upsert inserts the measurement or overwrites the existing row with the same
// external ID.
func (s *PostgresBodyMeasurementStore) Upsert(ctx context.Context, measurement *domain.BodyMeasurement) error {
	query := `
		INSERT INTO body_measurements (external_id, user_id, external_user_id,
			recorded_at, height_meters, weight_kilograms, max_heart_rate, raw,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (external_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			external_user_id = EXCLUDED.external_user_id,
			recorded_at = EXCLUDED.recorded_at,
			height_meters = EXCLUDED.height_meters,
			weight_kilograms = EXCLUDED.weight_kilograms,
			max_heart_rate = EXCLUDED.max_heart_rate,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		measurement.ExternalID,
		measurement.UserID,
		measurement.ExternalUserID,
		measurement.RecordedAt,
		measurement.HeightMeters,
		measurement.WeightKilograms,
		measurement.MaxHeartRate,
		measurement.Raw,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert body measurement %s: %w", measurement.ExternalID, MapError(err))
	}

	return nil
}

// LatestTimestamp returns the recorded time of the user's most recent
// body measurement.
func (s *PostgresBodyMeasurementStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return latestTimestamp(ctx, s.db, "body_measurements", "recorded_at", userID)
}
