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

// PostgresIntegrationStore implements the store.IntegrationStore interface
// using PostgreSQL.
type PostgresIntegrationStore struct {
	db store.DBTX
}

var _ store.IntegrationStore = (*PostgresIntegrationStore)(nil)

// NewPostgresIntegrationStore creates a new PostgresIntegrationStore.
func NewPostgresIntegrationStore(db store.DBTX) *PostgresIntegrationStore {
	return &PostgresIntegrationStore{
		db: db,
	}
}

// Create persists a new integration. Returns store.ErrDuplicate if the user
// already has one.
func (s *PostgresIntegrationStore) Create(ctx context.Context, integration *domain.Integration) error {
	if err := integration.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO integrations (id, user_id, external_user_id, sync_status,
			access_token, refresh_token, token_expires_at, last_synced_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		integration.ID,
		integration.UserID,
		integration.ExternalUserID,
		integration.SyncStatus,
		nullString(integration.AccessToken),
		nullString(integration.RefreshToken),
		integration.TokenExpiresAt,
		integration.LastSyncedAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save integration: %w", MapError(err))
	}

	return nil
}

// GetByUserID retrieves the integration for the given user.
func (s *PostgresIntegrationStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Integration, error) {
	query := `
		SELECT id, user_id, external_user_id, sync_status, access_token,
			refresh_token, token_expires_at, last_synced_at, created_at, updated_at
		FROM integrations
		WHERE user_id = $1
	`

	var i domain.Integration
	var accessToken, refreshToken sql.NullString
	var tokenExpiresAt, lastSyncedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&i.ID,
		&i.UserID,
		&i.ExternalUserID,
		&i.SyncStatus,
		&accessToken,
		&refreshToken,
		&tokenExpiresAt,
		&lastSyncedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("failed to get integration: %w", MapError(err))
	}

	i.AccessToken = accessToken.String
	i.RefreshToken = refreshToken.String
	if tokenExpiresAt.Valid {
		i.TokenExpiresAt = &tokenExpiresAt.Time
	}
	if lastSyncedAt.Valid {
		i.LastSyncedAt = &lastSyncedAt.Time
	}

	return &i, nil
}

// SetSyncStatus updates only the sync status of an integration.
func (s *PostgresIntegrationStore) SetSyncStatus(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error {
	log := logger.FromContext(ctx)

	query := `UPDATE integrations SET sync_status = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update integration sync status",
			"integration_id", id,
			"sync_status", status,
			"error", err)
		return fmt.Errorf("failed to update integration sync status: %w", MapError(err))
	}

	return CheckRowsAffected(result, "integration")
}

// MarkSynced records a completed sync pass: the watermark advances and the
// integration returns to ACTIVE even if individual record families partially
// failed, since a partial sync is still forward progress.
func (s *PostgresIntegrationStore) MarkSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	query := `
		UPDATE integrations
		SET sync_status = $1, last_synced_at = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.SyncStatusActive,
		syncedAt,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark integration synced: %w", MapError(err))
	}

	return CheckRowsAffected(result, "integration")
}

// SaveCredentials persists a rotated credential set after a token refresh.
func (s *PostgresIntegrationStore) SaveCredentials(
	ctx context.Context,
	id uuid.UUID,
	accessToken, refreshToken string,
	expiresAt *time.Time,
) error {
	query := `
		UPDATE integrations
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		nullString(accessToken),
		nullString(refreshToken),
		expiresAt,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to save integration credentials: %w", MapError(err))
	}

	return CheckRowsAffected(result, "integration")
}

// nullString maps "" to NULL so empty credentials are stored as absent.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
