// Package sync implements the incremental wearable data sync engine: per
// record family it resolves a resume point from local data, pages through the
// provider API, and idempotently upserts the normalized records.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evermore-health/vitalsync/internal/config"
	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/metrics"
	"github.com/evermore-health/vitalsync/internal/platform/whoop"
	"github.com/evermore-health/vitalsync/internal/service/token"
	"github.com/evermore-health/vitalsync/internal/store"
)

// RecordStores bundles the five record-family stores the engine writes to.
type RecordStores struct {
	Cycles           store.CycleStore
	Workouts         store.WorkoutStore
	Sleeps           store.SleepStore
	Recoveries       store.RecoveryStore
	BodyMeasurements store.BodyMeasurementStore
}

// Stats aggregates one sync pass for observability: records returned by the
// provider, records that survived mapping and persistence, and the families
// abandoned mid-pass.
type Stats struct {
	Fetched        int
	Upserted       int
	FailedFamilies []domain.RecordFamily
}

// Engine runs one user's sync pass across all record families.
//
// A pass is all-or-nothing only at the credential step: if no access token
// can be resolved, the integration is flagged PENDING and nothing is fetched.
// Past that point families are isolated; one family's fetch failure is
// recorded and the remaining families still run, and the integration
// watermark is advanced afterwards because a partial sync is still forward
// progress.
type Engine struct {
	tokens       token.Manager
	integrations store.IntegrationStore
	families     []familySyncer
	config       config.SyncConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine creates a sync engine over the given provider client and stores.
func NewEngine(
	client ProviderClient,
	tokens token.Manager,
	integrations store.IntegrationStore,
	records RecordStores,
	cfg config.SyncConfig,
	logger *slog.Logger,
) (*Engine, error) {
	if client == nil {
		return nil, errors.New("provider client cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("token manager cannot be nil")
	}
	if integrations == nil {
		return nil, errors.New("integration store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if records.Cycles == nil || records.Workouts == nil || records.Sleeps == nil ||
		records.Recoveries == nil || records.BodyMeasurements == nil {
		return nil, errors.New("all record stores must be set")
	}

	// Families run in a fixed order so logs from successive passes line up.
	families := []familySyncer{
		&cycleSyncer{client: client, store: records.Cycles, logger: logger},
		&workoutSyncer{client: client, store: records.Workouts, logger: logger},
		&sleepSyncer{client: client, store: records.Sleeps, logger: logger},
		&recoverySyncer{client: client, store: records.Recoveries, logger: logger},
		&bodyMeasurementSyncer{client: client, store: records.BodyMeasurements, logger: logger},
	}

	return &Engine{
		tokens:       tokens,
		integrations: integrations,
		families:     families,
		config:       cfg,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// SetNow replaces the engine's time source. Intended for tests.
func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
}

// Sync runs one full pass for the integration and returns aggregate counts.
// A credential failure errors before any family is fetched; per-family
// failures are collected in the returned Stats instead of erroring the pass.
func (e *Engine) Sync(ctx context.Context, integration *domain.Integration) (*Stats, error) {
	if integration == nil {
		return nil, errors.New("integration cannot be nil")
	}

	log := e.logger.With(
		"integration_id", integration.ID,
		"user_id", integration.UserID,
	)

	accessToken, err := e.tokens.EnsureAccessToken(ctx, integration)
	if err != nil {
		if setErr := e.integrations.SetSyncStatus(ctx, integration.ID, domain.SyncStatusPending); setErr != nil {
			log.Error("failed to flag integration as pending", "error", setErr)
		}
		metrics.SyncPasses.WithLabelValues("credential_failed").Inc()
		return nil, fmt.Errorf("credential resolution failed: %w", err)
	}

	stats := &Stats{}
	for _, syncer := range e.families {
		fetched, upserted, err := e.syncFamily(ctx, syncer, integration, accessToken)
		stats.Fetched += fetched
		stats.Upserted += upserted

		if err != nil {
			// Partial progress within the family is already persisted and
			// counted; the family is simply retried from its (possibly
			// advanced) resume point on the next pass.
			log.Error("record family sync failed",
				"family", syncer.family(),
				"error", err)
			metrics.FamilyFailures.WithLabelValues(string(syncer.family())).Inc()
			stats.FailedFamilies = append(stats.FailedFamilies, syncer.family())
		}
	}

	syncedAt := e.now().UTC()
	if err := e.integrations.MarkSynced(ctx, integration.ID, syncedAt); err != nil {
		return stats, fmt.Errorf("failed to record sync watermark: %w", err)
	}

	result := "complete"
	if len(stats.FailedFamilies) > 0 {
		result = "partial"
	}
	metrics.SyncPasses.WithLabelValues(result).Inc()

	log.Info("sync pass finished",
		"fetched", stats.Fetched,
		"upserted", stats.Upserted,
		"failed_families", len(stats.FailedFamilies))

	return stats, nil
}

// syncFamily pages through one record family from its resume point until the
// provider returns a null cursor.
func (e *Engine) syncFamily(
	ctx context.Context,
	syncer familySyncer,
	integration *domain.Integration,
	accessToken string,
) (fetched, upserted int, err error) {
	start, err := e.resumePoint(ctx, syncer, integration)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve resume point: %w", err)
	}

	params := whoop.PageParams{
		Start: start,
		Limit: e.config.PageSize,
	}

	for {
		res, err := syncer.syncPage(ctx, accessToken, params, integration)
		if err != nil {
			return fetched, upserted, err
		}

		fetched += res.fetched
		upserted += res.upserted
		metrics.RecordsFetched.WithLabelValues(string(syncer.family())).Add(float64(res.fetched))
		metrics.RecordsUpserted.WithLabelValues(string(syncer.family())).Add(float64(res.upserted))

		if res.nextToken == nil || *res.nextToken == "" {
			return fetched, upserted, nil
		}
		params.NextToken = *res.nextToken
	}
}

// resumePoint resolves where a family's incremental window starts: the newest
// stored record minus the resume buffer, so late-arriving or amended provider
// records near the boundary are re-fetched, or the first-sync lookback window
// when the user has no local records yet.
func (e *Engine) resumePoint(
	ctx context.Context,
	syncer familySyncer,
	integration *domain.Integration,
) (time.Time, error) {
	latest, err := syncer.latestTimestamp(ctx, integration.UserID)
	if err != nil {
		return time.Time{}, err
	}

	if latest == nil {
		return e.now().UTC().AddDate(0, 0, -e.config.LookbackDays), nil
	}

	return latest.UTC().Add(-time.Duration(e.config.ResumeBufferHours) * time.Hour), nil
}
