package store

import (
	"context"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/google/uuid"
)

// The five record-family stores share the same shape: an idempotent upsert
// keyed by the provider-assigned external ID, and a newest-timestamp query
// used by the sync engine to resolve its incremental resume point. They are
// separate interfaces (not one generic store) so each family keeps its own
// typed record and its own table.

// CycleStore persists physiological cycles.
type CycleStore interface {
	// Upsert inserts the cycle or overwrites the existing row with the same
	// external ID. Re-ingesting the same record is always safe.
	Upsert(ctx context.Context, cycle *domain.Cycle) error

	// LatestTimestamp returns the start time of the most recent cycle stored
	// for the user, or nil if the user has none.
	LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

// WorkoutStore persists workout sessions.
type WorkoutStore interface {
	Upsert(ctx context.Context, workout *domain.Workout) error
	LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

// SleepStore persists sleep sessions.
type SleepStore interface {
	Upsert(ctx context.Context, sleep *domain.Sleep) error
	LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

// RecoveryStore persists recovery assessments.
type RecoveryStore interface {
	Upsert(ctx context.Context, recovery *domain.Recovery) error
	LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

// BodyMeasurementStore persists body measurement snapshots.
type BodyMeasurementStore interface {
	Upsert(ctx context.Context, measurement *domain.BodyMeasurement) error
	LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}
