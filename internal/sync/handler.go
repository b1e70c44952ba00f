package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/evermore-health/vitalsync/internal/platform/logger"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/evermore-health/vitalsync/internal/task"
	"github.com/google/uuid"
)

// NewTaskHandler returns the sync queue's task handler. It loads the claimed
// task, parses its payload, resolves the user's integration, runs the engine,
// and marks the task SUCCEEDED itself; any error is returned to the
// dispatcher, which records the failure.
func NewTaskHandler(
	tasks store.TaskStore,
	integrations store.IntegrationStore,
	engine *Engine,
) task.Handler {
	return func(ctx context.Context, taskID uuid.UUID) error {
		log := logger.FromContext(ctx)

		claimed, err := tasks.Get(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task %s: %w", taskID, err)
		}

		payload, err := task.ParseSyncPayload(claimed.Payload)
		if err != nil {
			return err
		}

		integration, err := integrations.GetByUserID(ctx, payload.UserID)
		if err != nil {
			if errors.Is(err, store.ErrIntegrationNotFound) {
				return fmt.Errorf("no wearable integration for user %s: %w", payload.UserID, err)
			}
			return fmt.Errorf("failed to load integration for user %s: %w", payload.UserID, err)
		}

		log.Info("starting sync pass",
			"user_id", payload.UserID,
			"reason", payload.Reason)

		stats, err := engine.Sync(ctx, integration)
		if err != nil {
			return err
		}

		if len(stats.FailedFamilies) > 0 {
			log.Warn("sync pass finished with family failures",
				"failed_families", stats.FailedFamilies)
		}

		if err := tasks.MarkSucceeded(ctx, taskID); err != nil {
			return fmt.Errorf("failed to mark task succeeded: %w", err)
		}
		return nil
	}
}
