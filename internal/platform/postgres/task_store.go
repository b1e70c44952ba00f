package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/platform/logger"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
// It holds a *sql.DB rather than a DBTX because ClaimNext manages its own
// transaction: the row lock acquired by SELECT ... FOR UPDATE SKIP LOCKED
// must be held until the status update commits.
type PostgresTaskStore struct {
	db *sql.DB
}

// Statically verify the interface is satisfied.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

const taskColumns = `id, queue, task_name, payload, status, attempt_count,
	schedule_time, first_attempt_at, last_attempt_at, error_message,
	created_at, updated_at`

// Create persists a task to the database.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, queue, task_name, payload, status, attempt_count,
			schedule_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	payload := task.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Queue,
		task.TaskName,
		payload,
		task.Status,
		task.AttemptCount,
		task.ScheduleTime,
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"queue", task.Queue,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}

	return nil
}

// Get retrieves a task by its ID.
func (s *PostgresTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	return task, nil
}

// ClaimNext atomically claims the oldest eligible PENDING task on the queue.
//
// The SELECT and the status UPDATE run inside one transaction; FOR UPDATE
// SKIP LOCKED makes a concurrently-claiming dispatcher skip the locked row
// and observe zero eligible rows instead of blocking. This is the only
// mechanism preventing two dispatcher processes from claiming the same
// task; there is deliberately no in-process locking.
func (s *PostgresTaskStore) ClaimNext(ctx context.Context, queue string) (*domain.Task, error) {
	var claimed *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			SELECT ` + taskColumns + `
			FROM tasks
			WHERE queue = $1
			  AND status = $2
			  AND (schedule_time IS NULL OR schedule_time <= $3)
			ORDER BY schedule_time ASC NULLS FIRST, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`

		now := time.Now().UTC()

		task, err := scanTask(tx.QueryRowContext(ctx, query, queue, domain.TaskStatusPending, now))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNoEligibleTask
			}
			return fmt.Errorf("failed to select claimable task: %w", MapError(err))
		}

		update := `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`
		result, err := tx.ExecContext(ctx, update, domain.TaskStatusDispatched, now, task.ID)
		if err != nil {
			return fmt.Errorf("failed to mark task dispatched: %w", MapError(err))
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return err
		}

		task.Status = domain.TaskStatusDispatched
		task.UpdatedAt = now
		claimed = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

// MarkSucceeded records a successful processing pass.
func (s *PostgresTaskStore) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	return s.recordOutcome(ctx, id, domain.TaskStatusSucceeded, "")
}

// MarkFailed records a failed processing pass with the handler's error message.
func (s *PostgresTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return s.recordOutcome(ctx, id, domain.TaskStatusFailed, errorMessage)
}

// recordOutcome performs the shared attempt bookkeeping for both outcomes:
// exactly one call runs per processing pass, so attempt_count increments
// exactly once whether the pass succeeded or failed.
func (s *PostgresTaskStore) recordOutcome(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	errorMessage string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1,
			error_message = NULLIF($2, ''),
			attempt_count = attempt_count + 1,
			first_attempt_at = COALESCE(first_attempt_at, $3),
			last_attempt_at = $3,
			updated_at = $3
		WHERE id = $4
	`

	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query, status, errorMessage, now, id)
	if err != nil {
		log.Error("failed to record task outcome",
			"task_id", id,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to record task outcome: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var scheduleTime, firstAttemptAt, lastAttemptAt sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&t.ID,
		&t.Queue,
		&t.TaskName,
		&t.Payload,
		&t.Status,
		&t.AttemptCount,
		&scheduleTime,
		&firstAttemptAt,
		&lastAttemptAt,
		&errorMessage,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduleTime.Valid {
		t.ScheduleTime = &scheduleTime.Time
	}
	if firstAttemptAt.Valid {
		t.FirstAttemptAt = &firstAttemptAt.Time
	}
	if lastAttemptAt.Valid {
		t.LastAttemptAt = &lastAttemptAt.Time
	}
	t.ErrorMessage = errorMessage.String

	return &t, nil
}
