package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// PostgresWorkoutStore implements the store.WorkoutStore interface using PostgreSQL.
type PostgresWorkoutStore struct {
	db store.DBTX
}

var _ store.WorkoutStore = (*PostgresWorkoutStore)(nil)

// NewPostgresWorkoutStore creates a new PostgresWorkoutStore.
func NewPostgresWorkoutStore(db store.DBTX) *PostgresWorkoutStore {
	return &PostgresWorkoutStore{db: db}
}

// Upsert inserts the workout or overwrites the existing row with the same
// external ID.
func (s *PostgresWorkoutStore) Upsert(ctx context.Context, workout *domain.Workout) error {
	query := `
		INSERT INTO workouts (external_id, user_id, external_user_id, sport,
			start_time, end_time, duration_minutes, strain, kilojoules,
			avg_heart_rate, max_heart_rate, distance_meters, raw,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (external_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			external_user_id = EXCLUDED.external_user_id,
			sport = EXCLUDED.sport,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			duration_minutes = EXCLUDED.duration_minutes,
			strain = EXCLUDED.strain,
			kilojoules = EXCLUDED.kilojoules,
			avg_heart_rate = EXCLUDED.avg_heart_rate,
			max_heart_rate = EXCLUDED.max_heart_rate,
			distance_meters = EXCLUDED.distance_meters,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		workout.ExternalID,
		workout.UserID,
		workout.ExternalUserID,
		workout.Sport,
		workout.StartTime,
		workout.EndTime,
		workout.DurationMinutes,
		workout.Strain,
		workout.Kilojoules,
		workout.AvgHeartRate,
		workout.MaxHeartRate,
		workout.DistanceMeters,
		workout.Raw,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert workout %s: %w", workout.ExternalID, MapError(err))
	}

	return nil
}

// LatestTimestamp returns the start time of the user's most recent workout.
func (s *PostgresWorkoutStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return latestTimestamp(ctx, s.db, "workouts", "start_time", userID)
}
