package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/platform/whoop"
	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// mockProviderClient implements ProviderClient with overridable functions.
// Unset endpoints return a single empty final page.
type mockProviderClient struct {
	ListCyclesFn           func(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.CyclePage, error)
	ListWorkoutsFn         func(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.WorkoutPage, error)
	ListSleepsFn           func(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.SleepPage, error)
	ListRecoveriesFn       func(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.RecoveryPage, error)
	ListBodyMeasurementsFn func(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.BodyMeasurementPage, error)
}

var _ ProviderClient = (*mockProviderClient)(nil)

func (m *mockProviderClient) ListCycles(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.CyclePage, error) {
	if m.ListCyclesFn != nil {
		return m.ListCyclesFn(ctx, accessToken, p)
	}
	return &whoop.CyclePage{}, nil
}

func (m *mockProviderClient) ListWorkouts(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.WorkoutPage, error) {
	if m.ListWorkoutsFn != nil {
		return m.ListWorkoutsFn(ctx, accessToken, p)
	}
	return &whoop.WorkoutPage{}, nil
}

func (m *mockProviderClient) ListSleeps(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.SleepPage, error) {
	if m.ListSleepsFn != nil {
		return m.ListSleepsFn(ctx, accessToken, p)
	}
	return &whoop.SleepPage{}, nil
}

func (m *mockProviderClient) ListRecoveries(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.RecoveryPage, error) {
	if m.ListRecoveriesFn != nil {
		return m.ListRecoveriesFn(ctx, accessToken, p)
	}
	return &whoop.RecoveryPage{}, nil
}

func (m *mockProviderClient) ListBodyMeasurements(ctx context.Context, accessToken string, p whoop.PageParams) (*whoop.BodyMeasurementPage, error) {
	if m.ListBodyMeasurementsFn != nil {
		return m.ListBodyMeasurementsFn(ctx, accessToken, p)
	}
	return &whoop.BodyMeasurementPage{}, nil
}

// mockTokenManager implements token.Manager.
type mockTokenManager struct {
	EnsureAccessTokenFn func(ctx context.Context, integration *domain.Integration) (string, error)
}

func (m *mockTokenManager) EnsureAccessToken(ctx context.Context, integration *domain.Integration) (string, error) {
	if m.EnsureAccessTokenFn != nil {
		return m.EnsureAccessTokenFn(ctx, integration)
	}
	return "test-access-token", nil
}

// mockIntegrationStore implements store.IntegrationStore and records status
// and watermark writes for assertions.
type mockIntegrationStore struct {
	mu            gosync.Mutex
	integration   *domain.Integration
	statusWrites  []domain.SyncStatus
	markSyncedAt  *time.Time
	MarkSyncedFn  func(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
	GetByUserIDFn func(ctx context.Context, userID uuid.UUID) (*domain.Integration, error)
}

var _ store.IntegrationStore = (*mockIntegrationStore)(nil)

func (m *mockIntegrationStore) Create(ctx context.Context, integration *domain.Integration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integration = integration
	return nil
}

func (m *mockIntegrationStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Integration, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.integration == nil || m.integration.UserID != userID {
		return nil, store.ErrIntegrationNotFound
	}
	copied := *m.integration
	return &copied, nil
}

func (m *mockIntegrationStore) SetSyncStatus(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusWrites = append(m.statusWrites, status)
	if m.integration != nil {
		m.integration.SyncStatus = status
	}
	return nil
}

func (m *mockIntegrationStore) MarkSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	if m.MarkSyncedFn != nil {
		return m.MarkSyncedFn(ctx, id, syncedAt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.markSyncedAt = &syncedAt
	if m.integration != nil {
		m.integration.LastSyncedAt = &syncedAt
		m.integration.SyncStatus = domain.SyncStatusActive
	}
	return nil
}

func (m *mockIntegrationStore) SaveCredentials(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	return nil
}

func (m *mockIntegrationStore) syncedAt() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markSyncedAt
}

func (m *mockIntegrationStore) statuses() []domain.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SyncStatus, len(m.statusWrites))
	copy(out, m.statusWrites)
	return out
}

// The per-family memory stores keep upserted rows keyed by external id, so
// idempotence shows up as a stable row count across repeated passes.

type memCycleStore struct {
	mu       gosync.Mutex
	rows     map[string]*domain.Cycle
	latest   *time.Time
	UpsertFn func(ctx context.Context, cycle *domain.Cycle) error
}

var _ store.CycleStore = (*memCycleStore)(nil)

func newMemCycleStore() *memCycleStore {
	return &memCycleStore{rows: make(map[string]*domain.Cycle)}
}

func (s *memCycleStore) Upsert(ctx context.Context, cycle *domain.Cycle) error {
	if s.UpsertFn != nil {
		if err := s.UpsertFn(ctx, cycle); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[cycle.ExternalID] = cycle
	return nil
}

func (s *memCycleStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

func (s *memCycleStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type memWorkoutStore struct {
	mu     gosync.Mutex
	rows   map[string]*domain.Workout
	latest *time.Time
}

var _ store.WorkoutStore = (*memWorkoutStore)(nil)

func newMemWorkoutStore() *memWorkoutStore {
	return &memWorkoutStore{rows: make(map[string]*domain.Workout)}
}

func (s *memWorkoutStore) Upsert(ctx context.Context, workout *domain.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[workout.ExternalID] = workout
	return nil
}

func (s *memWorkoutStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

type memSleepStore struct {
	mu     gosync.Mutex
	rows   map[string]*domain.Sleep
	latest *time.Time
}

var _ store.SleepStore = (*memSleepStore)(nil)

func newMemSleepStore() *memSleepStore {
	return &memSleepStore{rows: make(map[string]*domain.Sleep)}
}

func (s *memSleepStore) Upsert(ctx context.Context, sleep *domain.Sleep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sleep.ExternalID] = sleep
	return nil
}

func (s *memSleepStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

type memRecoveryStore struct {
	mu     gosync.Mutex
	rows   map[string]*domain.Recovery
	latest *time.Time
}

var _ store.RecoveryStore = (*memRecoveryStore)(nil)

func newMemRecoveryStore() *memRecoveryStore {
	return &memRecoveryStore{rows: make(map[string]*domain.Recovery)}
}

func (s *memRecoveryStore) Upsert(ctx context.Context, recovery *domain.Recovery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[recovery.ExternalID] = recovery
	return nil
}

func (s *memRecoveryStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

type memBodyMeasurementStore struct {
	mu     gosync.Mutex
	rows   map[string]*domain.BodyMeasurement
	latest *time.Time
}

var _ store.BodyMeasurementStore = (*memBodyMeasurementStore)(nil)

func newMemBodyMeasurementStore() *memBodyMeasurementStore {
	return &memBodyMeasurementStore{rows: make(map[string]*domain.BodyMeasurement)}
}

func (s *memBodyMeasurementStore) Upsert(ctx context.Context, measurement *domain.BodyMeasurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[measurement.ExternalID] = measurement
	return nil
}

func (s *memBodyMeasurementStore) LatestTimestamp(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}
