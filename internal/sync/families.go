package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/platform/whoop"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// ProviderClient is the slice of the wearable API client the engine needs:
// one cursor-paginated list call per record family.
type ProviderClient interface {
	ListCycles(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.CyclePage, error)
	ListWorkouts(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.WorkoutPage, error)
	ListSleeps(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.SleepPage, error)
	ListRecoveries(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.RecoveryPage, error)
	ListBodyMeasurements(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.BodyMeasurementPage, error)
}

// pageResult is one page's outcome: how many records the provider returned,
// how many survived mapping and persistence, and the cursor for the next page
// (nil on the final page).
type pageResult struct {
	fetched   int
	upserted  int
	nextToken *string
}

// familySyncer is one record family's slice of the sync pass. Each
// implementation pairs a provider list endpoint with its typed store; the
// engine drives them uniformly.
type familySyncer interface {
	family() domain.RecordFamily

	// latestTimestamp returns the newest stored record timestamp for the
	// user, used to resolve the incremental resume point.
	latestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error)

	// syncPage fetches one page and upserts its records. Mapping and
	// persistence failures are logged and skipped per record; only a fetch
	// failure errors the family.
	syncPage(ctx context.Context, accessToken string, params whoop.PageParams, integration *domain.Integration) (pageResult, error)
}

type cycleSyncer struct {
	client ProviderClient
	store  store.CycleStore
	logger *slog.Logger
}

func (s *cycleSyncer) family() domain.RecordFamily { return domain.FamilyCycles }

func (s *cycleSyncer) latestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return s.store.LatestTimestamp(ctx, userID)
}

func (s *cycleSyncer) syncPage(
	ctx context.Context,
	accessToken string,
	params whoop.PageParams,
	integration *domain.Integration,
) (pageResult, error) {
	page, err := s.client.ListCycles(ctx, accessToken, params)
	if err != nil {
		return pageResult{}, err
	}

	res := pageResult{fetched: len(page.Records), nextToken: page.NextToken}
	for _, rec := range page.Records {
		mapped, err := mapCycle(rec, integration)
		if err != nil {
			s.logger.Warn("skipping unmappable cycle", "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, mapped); err != nil {
			s.logger.Error("failed to upsert cycle",
				"external_id", mapped.ExternalID,
				"error", err)
			continue
		}
		res.upserted++
	}
	return res, nil
}

type workoutSyncer struct {
	client ProviderClient
	store  store.WorkoutStore
	logger *slog.Logger
}

func (s *workoutSyncer) family() domain.RecordFamily { return domain.FamilyWorkouts }

func (s *workoutSyncer) latestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return s.store.LatestTimestamp(ctx, userID)
}

func (s *workoutSyncer) syncPage(
	ctx context.Context,
	accessToken string,
	params whoop.PageParams,
	integration *domain.Integration,
) (pageResult, error) {
	page, err := s.client.ListWorkouts(ctx, accessToken, params)
	if err != nil {
		return pageResult{}, err
	}

	res := pageResult{fetched: len(page.Records), nextToken: page.NextToken}
	for _, rec := range page.Records {
		mapped, err := mapWorkout(rec, integration)
		if err != nil {
			s.logger.Warn("skipping unmappable workout", "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, mapped); err != nil {
			s.logger.Error("failed to upsert workout",
				"external_id", mapped.ExternalID,
				"error", err)
			continue
		}
		res.upserted++
	}
	return res, nil
}

type sleepSyncer struct {
	client ProviderClient
	store  store.SleepStore
	logger *slog.Logger
}

func (s *sleepSyncer) family() domain.RecordFamily { return domain.FamilySleeps }

func (s *sleepSyncer) latestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return s.store.LatestTimestamp(ctx, userID)
}

func (s *sleepSyncer) syncPage(
	ctx context.Context,
	accessToken string,
	params whoop.PageParams,
	integration *domain.Integration,
) (pageResult, error) {
	page, err := s.client.ListSleeps(ctx, accessToken, params)
	if err != nil {
		return pageResult{}, err
	}

	res := pageResult{fetched: len(page.Records), nextToken: page.NextToken}
	for _, rec := range page.Records {
		mapped, err := mapSleep(rec, integration)
		if err != nil {
			s.logger.Warn("skipping unmappable sleep", "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, mapped); err != nil {
			s.logger.Error("failed to upsert sleep",
				"external_id", mapped.ExternalID,
				"error", err)
			continue
		}
		res.upserted++
	}
	return res, nil
}

type recoverySyncer struct {
	client ProviderClient
	store  store.RecoveryStore
	logger *slog.Logger
}

func (s *recoverySyncer) family() domain.RecordFamily { return domain.FamilyRecoveries }

func (s *recoverySyncer) latestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return s.store.LatestTimestamp(ctx, userID)
}

func (s *recoverySyncer) syncPage(
	ctx context.Context,
	accessToken string,
	params whoop.PageParams,
	integration *domain.Integration,
) (pageResult, error) {
	page, err := s.client.ListRecoveries(ctx, accessToken, params)
	if err != nil {
		return pageResult{}, err
	}

	res := pageResult{fetched: len(page.Records), nextToken: page.NextToken}
	for _, rec := range page.Records {
		mapped, err := mapRecovery(rec, integration)
		if err != nil {
			s.logger.Warn("skipping unmappable recovery", "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, mapped); err != nil {
			s.logger.Error("failed to upsert recovery",
				"external_id", mapped.ExternalID,
				"error", err)
			continue
		}
		res.upserted++
	}
	return res, nil
}

type bodyMeasurementSyncer struct {
	client ProviderClient
	store  store.BodyMeasurementStore
	logger *slog.Logger
}

func (s *bodyMeasurementSyncer) family() domain.RecordFamily { return domain.FamilyBodyMeasurements }

func (s *bodyMeasurementSyncer) latestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return s.store.LatestTimestamp(ctx, userID)
}

func (s *bodyMeasurementSyncer) syncPage(
	ctx context.Context,
	accessToken string,
	params whoop.PageParams,
	integration *domain.Integration,
) (pageResult, error) {
	page, err := s.client.ListBodyMeasurements(ctx, accessToken, params)
	if err != nil {
		return pageResult{}, err
	}

	res := pageResult{fetched: len(page.Records), nextToken: page.NextToken}
	for _, rec := range page.Records {
		mapped, err := mapBodyMeasurement(rec, integration)
		if err != nil {
			s.logger.Warn("skipping unmappable body measurement", "error", err)
			continue
		}
		if err := s.store.Upsert(ctx, mapped); err != nil {
			s.logger.Error("failed to upsert body measurement",
				"external_id", mapped.ExternalID,
				"error", err)
			continue
		}
		res.upserted++
	}
	return res, nil
}
