package task

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrMalformedPayload is returned when a task payload cannot be parsed into
// its queue's typed payload. Handlers fail the task with this error rather
// than working around missing fields.
var ErrMalformedPayload = errors.New("malformed task payload")

// payloadValidator validates payload structs after JSON decoding.
// validator.Validate is safe for concurrent use.
var payloadValidator = validator.New()

// SyncReason records why a sync task was enqueued.
type SyncReason string

// Valid sync reasons.
const (
	ReasonInitialLink SyncReason = "initial-link"
	ReasonScheduled   SyncReason = "scheduled"
	ReasonManualRetry SyncReason = "manual-retry"
	ReasonWebhook     SyncReason = "webhook"
)

// SyncPayload is the typed payload of tasks on the sync queue.
type SyncPayload struct {
	UserID         uuid.UUID  `json:"userId"         validate:"required"`
	ExternalUserID string     `json:"externalUserId" validate:"required"`
	Reason         SyncReason `json:"reason"         validate:"required,oneof=initial-link scheduled manual-retry webhook"`
}

// ParseSyncPayload decodes and validates a sync task payload.
func ParseSyncPayload(data []byte) (*SyncPayload, error) {
	var payload SyncPayload
	if err := parsePayload(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NotificationPayload is the typed payload of tasks on the notification queue.
type NotificationPayload struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Title  string    `json:"title"  validate:"required"`
	Body   string    `json:"body"`
}

// ParseNotificationPayload decodes and validates a notification task payload.
func ParseNotificationPayload(data []byte) (*NotificationPayload, error) {
	var payload NotificationPayload
	if err := parsePayload(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// InsightPayload is the typed payload of tasks on the insight queue.
type InsightPayload struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Kind   string    `json:"kind"   validate:"required"`
}

// ParseInsightPayload decodes and validates an insight task payload.
func ParseInsightPayload(data []byte) (*InsightPayload, error) {
	var payload InsightPayload
	if err := parsePayload(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// parsePayload is the shared decode-then-validate step. Every failure mode
// maps to ErrMalformedPayload so handlers have a single error to check.
func parsePayload(data []byte, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: payload is empty", ErrMalformedPayload)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := payloadValidator.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return nil
}
