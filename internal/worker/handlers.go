// Package worker holds the handlers for the non-sync queues. Delivery and
// generation are handled by external collaborators; these handlers validate
// the payload, record the intent, and complete the task.
package worker

import (
	"context"
	"fmt"

	"github.com/evermore-health/vitalsync/internal/platform/logger"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/evermore-health/vitalsync/internal/task"
	"github.com/google/uuid"
)

// NewNotificationHandler returns the notification queue's task handler.
func NewNotificationHandler(tasks store.TaskStore) task.Handler {
	return func(ctx context.Context, taskID uuid.UUID) error {
		claimed, err := tasks.Get(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task %s: %w", taskID, err)
		}

		payload, err := task.ParseNotificationPayload(claimed.Payload)
		if err != nil {
			return err
		}

		logger.FromContext(ctx).Info("notification accepted for delivery",
			"user_id", payload.UserID,
			"title", payload.Title)

		if err := tasks.MarkSucceeded(ctx, taskID); err != nil {
			return fmt.Errorf("failed to mark task succeeded: %w", err)
		}
		return nil
	}
}

// NewInsightHandler returns the insight queue's task handler.
func NewInsightHandler(tasks store.TaskStore) task.Handler {
	return func(ctx context.Context, taskID uuid.UUID) error {
		claimed, err := tasks.Get(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task %s: %w", taskID, err)
		}

		payload, err := task.ParseInsightPayload(claimed.Payload)
		if err != nil {
			return err
		}

		logger.FromContext(ctx).Info("insight generation requested",
			"user_id", payload.UserID,
			"kind", payload.Kind)

		if err := tasks.MarkSucceeded(ctx, taskID); err != nil {
			return fmt.Errorf("failed to mark task succeeded: %w", err)
		}
		return nil
	}
}
