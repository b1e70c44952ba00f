// Package token resolves valid access credentials for wearable integrations,
// refreshing expired tokens through the provider's OAuth2 endpoint and
// persisting rotated credential sets.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evermore-health/vitalsync/internal/config"
	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/store"
	"golang.org/x/oauth2"
)

// ErrCredentialUnavailable is returned when no valid access token can be
// resolved for an integration: the stored token is expired and either no
// refresh token exists or the refresh itself was rejected. Callers must
// treat this as a hard stop for the whole sync pass, not a retryable
// condition within the call.
var ErrCredentialUnavailable = errors.New("no valid access credential available")

// expirySkew is how close to expiry a stored token may be before it is
// refreshed preemptively, so a token does not expire mid-pagination.
const expirySkew = 2 * time.Minute

// Manager resolves a currently-valid access token for an integration.
type Manager interface {
	// EnsureAccessToken returns a valid access token for the integration,
	// refreshing and persisting a new credential set if the stored one is
	// expired. Returns ErrCredentialUnavailable if no usable credential can
	// be obtained.
	EnsureAccessToken(ctx context.Context, integration *domain.Integration) (string, error)
}

// OAuthManager implements Manager using the OAuth2 refresh-token grant.
type OAuthManager struct {
	integrations store.IntegrationStore
	oauthConfig  *oauth2.Config
	logger       *slog.Logger
	now          func() time.Time
}

var _ Manager = (*OAuthManager)(nil)

// NewOAuthManager creates a new OAuthManager for the configured provider.
func NewOAuthManager(
	integrations store.IntegrationStore,
	cfg config.WhoopConfig,
	logger *slog.Logger,
) (*OAuthManager, error) {
	if integrations == nil {
		return nil, errors.New("integration store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("provider client credentials cannot be empty")
	}
	if cfg.TokenURL == "" {
		return nil, errors.New("provider token URL cannot be empty")
	}

	return &OAuthManager{
		integrations: integrations,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: cfg.TokenURL,
			},
		},
		logger: logger,
		now:    time.Now,
	}, nil
}

// EnsureAccessToken returns the stored access token when it is still valid,
// otherwise refreshes it through the provider and persists the rotated
// credential set before returning the new token.
func (m *OAuthManager) EnsureAccessToken(ctx context.Context, integration *domain.Integration) (string, error) {
	if integration == nil {
		return "", errors.New("integration cannot be nil")
	}

	if m.tokenStillValid(integration) {
		return integration.AccessToken, nil
	}

	if integration.RefreshToken == "" {
		return "", fmt.Errorf(
			"%w: integration %s has no refresh token",
			ErrCredentialUnavailable,
			integration.ID,
		)
	}

	source := m.oauthConfig.TokenSource(ctx, &oauth2.Token{
		RefreshToken: integration.RefreshToken,
	})

	refreshed, err := source.Token()
	if err != nil {
		m.logger.Warn("token refresh rejected by provider",
			"integration_id", integration.ID,
			"error", err)
		return "", fmt.Errorf("%w: refresh failed: %v", ErrCredentialUnavailable, err)
	}

	// Providers may rotate the refresh token on every grant; keep the old
	// one only when the response omits a replacement.
	refreshToken := refreshed.RefreshToken
	if refreshToken == "" {
		refreshToken = integration.RefreshToken
	}

	var expiresAt *time.Time
	if !refreshed.Expiry.IsZero() {
		expiry := refreshed.Expiry.UTC()
		expiresAt = &expiry
	}

	if err := m.integrations.SaveCredentials(
		ctx,
		integration.ID,
		refreshed.AccessToken,
		refreshToken,
		expiresAt,
	); err != nil {
		// Losing a rotated refresh token strands the integration, so a
		// persistence failure fails the resolution outright.
		return "", fmt.Errorf("failed to persist refreshed credentials: %w", err)
	}

	integration.AccessToken = refreshed.AccessToken
	integration.RefreshToken = refreshToken
	integration.TokenExpiresAt = expiresAt

	m.logger.Info("access token refreshed",
		"integration_id", integration.ID,
		"expires_at", refreshed.Expiry)

	return refreshed.AccessToken, nil
}

// tokenStillValid reports whether the stored access token can be used as-is.
func (m *OAuthManager) tokenStillValid(integration *domain.Integration) bool {
	if integration.AccessToken == "" {
		return false
	}
	if integration.TokenExpiresAt == nil {
		return false
	}
	return integration.TokenExpiresAt.After(m.now().Add(expirySkew))
}
