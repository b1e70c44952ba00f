package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RecordFamily identifies one of the wearable provider's record collections.
// Every synced record is uniquely identified by (family, external ID); that
// pair is the idempotency key for upserts.
type RecordFamily string

// The five record families the provider exposes.
const (
	FamilyCycles           RecordFamily = "cycles"
	FamilyWorkouts         RecordFamily = "workouts"
	FamilySleeps           RecordFamily = "sleeps"
	FamilyRecoveries       RecordFamily = "recoveries"
	FamilyBodyMeasurements RecordFamily = "body_measurements"
)

// RecordFamilies lists all families in the order they are synced.
func RecordFamilies() []RecordFamily {
	return []RecordFamily{
		FamilyCycles,
		FamilyWorkouts,
		FamilySleeps,
		FamilyRecoveries,
		FamilyBodyMeasurements,
	}
}

// Cycle is one physiological day-cycle. Numeric fields are nil when the
// provider omitted them or sent an uncoercible value.
type Cycle struct {
	ExternalID     string          `json:"external_id"`
	UserID         uuid.UUID       `json:"user_id"`
	ExternalUserID string          `json:"external_user_id"`
	StartTime      *time.Time      `json:"start_time,omitempty"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
	Strain         *float64        `json:"strain,omitempty"`
	Kilojoules     *float64        `json:"kilojoules,omitempty"`
	AvgHeartRate   *float64        `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *float64        `json:"max_heart_rate,omitempty"`
	Raw            json.RawMessage `json:"raw"`
}

// Workout is one recorded activity session.
type Workout struct {
	ExternalID      string          `json:"external_id"`
	UserID          uuid.UUID       `json:"user_id"`
	ExternalUserID  string          `json:"external_user_id"`
	Sport           string          `json:"sport"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationMinutes *float64        `json:"duration_minutes,omitempty"`
	Strain          *float64        `json:"strain,omitempty"`
	Kilojoules      *float64        `json:"kilojoules,omitempty"`
	AvgHeartRate    *float64        `json:"avg_heart_rate,omitempty"`
	MaxHeartRate    *float64        `json:"max_heart_rate,omitempty"`
	DistanceMeters  *float64        `json:"distance_meters,omitempty"`
	Raw             json.RawMessage `json:"raw"`
}

// Sleep is one sleep session (naps included).
type Sleep struct {
	ExternalID      string          `json:"external_id"`
	UserID          uuid.UUID       `json:"user_id"`
	ExternalUserID  string          `json:"external_user_id"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationMinutes *float64        `json:"duration_minutes,omitempty"`
	EfficiencyPct   *float64        `json:"efficiency_pct,omitempty"`
	PerformancePct  *float64        `json:"performance_pct,omitempty"`
	RespiratoryRate *float64        `json:"respiratory_rate,omitempty"`
	Raw             json.RawMessage `json:"raw"`
}

// Recovery is one morning recovery assessment. ExternalID is the
// provider-assigned record id; the cycle and sleep it derives from are
// carried as plain attributes, not as part of the uniqueness key.
type Recovery struct {
	ExternalID       string          `json:"external_id"`
	UserID           uuid.UUID       `json:"user_id"`
	ExternalUserID   string          `json:"external_user_id"`
	CycleExternalID  string          `json:"cycle_external_id,omitempty"`
	SleepExternalID  string          `json:"sleep_external_id,omitempty"`
	RecordedAt       *time.Time      `json:"recorded_at,omitempty"`
	Score            *float64        `json:"score,omitempty"`
	RestingHeartRate *float64        `json:"resting_heart_rate,omitempty"`
	HRVMilli         *float64        `json:"hrv_milli,omitempty"`
	SpO2Pct          *float64        `json:"spo2_pct,omitempty"`
	SkinTempCelsius  *float64        `json:"skin_temp_celsius,omitempty"`
	Raw              json.RawMessage `json:"raw"`
}

// BodyMeasurement is one height/weight/max-HR measurement snapshot.
type BodyMeasurement struct {
	ExternalID      string          `json:"external_id"`
	UserID          uuid.UUID       `json:"user_id"`
	ExternalUserID  string          `json:"external_user_id"`
	RecordedAt      *time.Time      `json:"recorded_at,omitempty"`
	HeightMeters    *float64        `json:"height_meters,omitempty"`
	WeightKilograms *float64        `json:"weight_kilograms,omitempty"`
	MaxHeartRate    *float64        `json:"max_heart_rate,omitempty"`
	Raw             json.RawMessage `json:"raw"`
}
