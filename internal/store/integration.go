package store

import (
	"context"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/google/uuid"
)

// IntegrationStore defines the interface for wearable integration persistence.
type IntegrationStore interface {
	// Create persists a new integration.
	// Returns ErrDuplicate if the user already has one.
	Create(ctx context.Context, integration *domain.Integration) error

	// GetByUserID retrieves the integration for the given user.
	// Returns ErrIntegrationNotFound if none exists.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Integration, error)

	// SetSyncStatus updates only the sync status (used to flag a stalled
	// integration as PENDING when credential resolution fails).
	SetSyncStatus(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error

	// MarkSynced records a completed sync pass: last_synced_at set to
	// syncedAt and sync_status set back to ACTIVE.
	MarkSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error

	// SaveCredentials persists a rotated credential set after a token refresh.
	SaveCredentials(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error
}
