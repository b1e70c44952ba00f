package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SyncStatus represents the credential health of an integration.
// ACTIVE means the last sync pass resolved a usable access token;
// PENDING means the last credential resolution failed and the
// integration is stalled until the user re-links or a refresh succeeds.
type SyncStatus string

// Possible sync status values.
const (
	SyncStatusActive  SyncStatus = "ACTIVE"
	SyncStatusPending SyncStatus = "PENDING"
)

// Integration-specific validation errors
var (
	// ErrIntegrationIDEmpty is returned when an integration ID is empty or nil.
	ErrIntegrationIDEmpty = errors.New("integration ID cannot be empty")

	// ErrIntegrationUserIDEmpty is returned when an integration's user ID is empty or nil.
	ErrIntegrationUserIDEmpty = errors.New("integration user ID cannot be empty")

	// ErrIntegrationExternalUserIDEmpty is returned when an integration has no
	// external (provider-side) user identifier.
	ErrIntegrationExternalUserIDEmpty = errors.New("integration external user ID cannot be empty")
)

// Integration links one user to one external wearable provider account.
// The token columns hold the current OAuth credential set; token encryption
// at rest is handled upstream and is out of scope here.
type Integration struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	ExternalUserID string     `json:"external_user_id"`
	SyncStatus     SyncStatus `json:"sync_status"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewIntegration creates an ACTIVE integration for the given user and
// provider-side user ID. Returns an error if validation fails.
func NewIntegration(userID uuid.UUID, externalUserID string) (*Integration, error) {
	now := time.Now().UTC()
	integration := &Integration{
		ID:             uuid.New(),
		UserID:         userID,
		ExternalUserID: externalUserID,
		SyncStatus:     SyncStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := integration.Validate(); err != nil {
		return nil, err
	}

	return integration, nil
}

// Validate checks if the Integration has valid data.
func (i *Integration) Validate() error {
	if i.ID == uuid.Nil {
		return ErrIntegrationIDEmpty
	}

	if i.UserID == uuid.Nil {
		return ErrIntegrationUserIDEmpty
	}

	if i.ExternalUserID == "" {
		return ErrIntegrationExternalUserIDEmpty
	}

	return nil
}
