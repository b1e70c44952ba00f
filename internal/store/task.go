package store

import (
	"context"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/google/uuid"
)

// TaskStore defines the interface for task queue persistence.
//
// ClaimNext is the only cross-process coordination point in the system: it
// must atomically select the oldest eligible PENDING task on the queue and
// transition it to DISPATCHED inside a single transaction, so that two
// dispatcher processes racing on the same queue can never both claim the
// same task.
type TaskStore interface {
	// Create persists a new task. Tasks are normally created by the product
	// backend; this method exists for tooling and tests.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ClaimNext atomically claims the oldest eligible PENDING task on the
	// given queue, ordered by (schedule_time ASC NULLS FIRST, created_at ASC),
	// where schedule_time is unset or due. The claimed task is returned in
	// DISPATCHED state. Returns ErrNoEligibleTask when the queue is idle.
	ClaimNext(ctx context.Context, queue string) (*domain.Task, error)

	// MarkSucceeded records a successful processing pass: status SUCCEEDED,
	// attempt_count incremented, first/last attempt timestamps set.
	MarkSucceeded(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failed processing pass: status FAILED, the error
	// message stored, attempt_count incremented, first/last attempt
	// timestamps set. Nothing here re-enqueues the task; retry is owned by
	// an external actor observing FAILED rows.
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}
