package whoop

import (
	"bytes"
	"encoding/json"
	"time"
)

// FlexID is a provider identifier that may arrive as a JSON string or a JSON
// number (older record families use numeric ids, newer ones UUID strings).
// It always normalizes to its string form.
type FlexID string

// UnmarshalJSON accepts both `"abc"` and `123`.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// String returns the normalized identifier.
func (f FlexID) String() string {
	return string(f)
}

// Score holds a record's scored metrics. The provider's score objects vary by
// family and occasionally carry malformed values, so they are decoded loosely
// and coerced field by field during mapping.
type Score map[string]any

// Cycle is one physiological day-cycle as returned by the provider.
type Cycle struct {
	ID         FlexID     `json:"id"`
	UserID     FlexID     `json:"user_id"`
	Start      *time.Time `json:"start"`
	End        *time.Time `json:"end"`
	ScoreState string     `json:"score_state"`
	Score      Score      `json:"score"`
}

// Workout is one recorded activity session.
type Workout struct {
	ID         FlexID     `json:"id"`
	UserID     FlexID     `json:"user_id"`
	SportID    any        `json:"sport_id"`
	Start      *time.Time `json:"start"`
	End        *time.Time `json:"end"`
	ScoreState string     `json:"score_state"`
	Score      Score      `json:"score"`
}

// Sleep is one sleep session.
type Sleep struct {
	ID         FlexID     `json:"id"`
	UserID     FlexID     `json:"user_id"`
	Start      *time.Time `json:"start"`
	End        *time.Time `json:"end"`
	Nap        bool       `json:"nap"`
	ScoreState string     `json:"score_state"`
	Score      Score      `json:"score"`
}

// Recovery is one morning recovery assessment. The provider assigns each
// recovery its own record id alongside the cycle and sleep it derives from.
type Recovery struct {
	ID         FlexID     `json:"id"`
	UserID     FlexID     `json:"user_id"`
	CycleID    FlexID     `json:"cycle_id"`
	SleepID    FlexID     `json:"sleep_id"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	ScoreState string     `json:"score_state"`
	Score      Score      `json:"score"`
}

// BodyMeasurement is one height/weight/max-HR snapshot. Measurement values
// are decoded loosely for the same reason score objects are.
type BodyMeasurement struct {
	ID             FlexID     `json:"id"`
	UserID         FlexID     `json:"user_id"`
	RecordedAt     *time.Time `json:"recorded_at"`
	HeightMeter    any        `json:"height_meter"`
	WeightKilogram any        `json:"weight_kilogram"`
	MaxHeartRate   any        `json:"max_heart_rate"`
}

// Page envelopes: every collection endpoint returns a records array plus an
// opaque next_token; a null token signals the final page.

// CyclePage is one page of cycles.
type CyclePage struct {
	Records   []Cycle `json:"records"`
	NextToken *string `json:"next_token"`
}

// WorkoutPage is one page of workouts.
type WorkoutPage struct {
	Records   []Workout `json:"records"`
	NextToken *string   `json:"next_token"`
}

// SleepPage is one page of sleeps.
type SleepPage struct {
	Records   []Sleep `json:"records"`
	NextToken *string `json:"next_token"`
}

// RecoveryPage is one page of recoveries.
type RecoveryPage struct {
	Records   []Recovery `json:"records"`
	NextToken *string    `json:"next_token"`
}

// BodyMeasurementPage is one page of body measurements.
type BodyMeasurementPage struct {
	Records   []BodyMeasurement `json:"records"`
	NextToken *string           `json:"next_token"`
}
