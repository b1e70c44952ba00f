package sync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/platform/whoop"
)

// errRecordWithoutID marks a provider record that cannot be keyed for upsert.
var errRecordWithoutID = errors.New("record has no external id")

// sportNames maps the provider's numeric sport ids to readable names. Ids the
// table does not know fall back to "unknown" rather than failing the record;
// the provider adds sports faster than we track them.
var sportNames = map[int]string{
	-1:  "activity",
	0:   "running",
	1:   "cycling",
	16:  "baseball",
	17:  "basketball",
	18:  "rowing",
	22:  "golf",
	24:  "ice_hockey",
	27:  "rugby",
	30:  "skiing",
	33:  "soccer",
	36:  "swimming",
	39:  "boxing",
	43:  "pilates",
	44:  "yoga",
	45:  "weightlifting",
	48:  "functional_fitness",
	52:  "hiking",
	57:  "rock_climbing",
	63:  "walking",
	71:  "surfing",
	74:  "elliptical",
	96:  "hiit",
	97:  "spin",
	101: "pickleball",
}

const sportUnknown = "unknown"

// sportName resolves a loosely-typed sport id to its name.
func sportName(id any) string {
	f := coerceFloat(id)
	if f == nil {
		return sportUnknown
	}

	name, ok := sportNames[int(*f)]
	if !ok {
		return sportUnknown
	}
	return name
}

// The map functions translate one provider record into its normalized form.
// Numeric score fields are coerce-or-null with a fixed per-field precision;
// the untouched provider record is kept alongside as raw JSON.

func mapCycle(rec whoop.Cycle, integration *domain.Integration) (*domain.Cycle, error) {
	if rec.ID == "" {
		return nil, errRecordWithoutID
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode cycle record: %w", err)
	}

	return &domain.Cycle{
		ExternalID:     rec.ID.String(),
		UserID:         integration.UserID,
		ExternalUserID: integration.ExternalUserID,
		StartTime:      rec.Start,
		EndTime:        rec.End,
		Strain:         coerceRound(rec.Score["strain"], 2),
		Kilojoules:     coerceRound(rec.Score["kilojoule"], 2),
		AvgHeartRate:   coerceRound(rec.Score["average_heart_rate"], 1),
		MaxHeartRate:   coerceRound(rec.Score["max_heart_rate"], 1),
		Raw:            raw,
	}, nil
}

func mapWorkout(rec whoop.Workout, integration *domain.Integration) (*domain.Workout, error) {
	if rec.ID == "" {
		return nil, errRecordWithoutID
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode workout record: %w", err)
	}

	return &domain.Workout{
		ExternalID:      rec.ID.String(),
		UserID:          integration.UserID,
		ExternalUserID:  integration.ExternalUserID,
		Sport:           sportName(rec.SportID),
		StartTime:       rec.Start,
		EndTime:         rec.End,
		DurationMinutes: durationMinutes(rec.Start, rec.End),
		Strain:          coerceRound(rec.Score["strain"], 2),
		Kilojoules:      coerceRound(rec.Score["kilojoule"], 2),
		AvgHeartRate:    coerceRound(rec.Score["average_heart_rate"], 1),
		MaxHeartRate:    coerceRound(rec.Score["max_heart_rate"], 1),
		DistanceMeters:  coerceRound(rec.Score["distance_meter"], 1),
		Raw:             raw,
	}, nil
}

func mapSleep(rec whoop.Sleep, integration *domain.Integration) (*domain.Sleep, error) {
	if rec.ID == "" {
		return nil, errRecordWithoutID
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode sleep record: %w", err)
	}

	return &domain.Sleep{
		ExternalID:      rec.ID.String(),
		UserID:          integration.UserID,
		ExternalUserID:  integration.ExternalUserID,
		StartTime:       rec.Start,
		EndTime:         rec.End,
		DurationMinutes: durationMinutes(rec.Start, rec.End),
		EfficiencyPct:   coerceRound(rec.Score["sleep_efficiency_percentage"], 2),
		PerformancePct:  coerceRound(rec.Score["sleep_performance_percentage"], 2),
		RespiratoryRate: coerceRound(rec.Score["respiratory_rate"], 2),
		Raw:             raw,
	}, nil
}

func mapRecovery(rec whoop.Recovery, integration *domain.Integration) (*domain.Recovery, error) {
	if rec.ID == "" {
		return nil, errRecordWithoutID
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode recovery record: %w", err)
	}

	return &domain.Recovery{
		ExternalID:       rec.ID.String(),
		UserID:           integration.UserID,
		ExternalUserID:   integration.ExternalUserID,
		CycleExternalID:  rec.CycleID.String(),
		SleepExternalID:  rec.SleepID.String(),
		RecordedAt:       rec.CreatedAt,
		Score:            coerceRound(rec.Score["recovery_score"], 1),
		RestingHeartRate: coerceRound(rec.Score["resting_heart_rate"], 1),
		HRVMilli:         coerceRound(rec.Score["hrv_rmssd_milli"], 2),
		SpO2Pct:          coerceRound(rec.Score["spo2_percentage"], 2),
		SkinTempCelsius:  coerceRound(rec.Score["skin_temp_celsius"], 2),
		Raw:              raw,
	}, nil
}

func mapBodyMeasurement(rec whoop.BodyMeasurement, integration *domain.Integration) (*domain.BodyMeasurement, error) {
	// Body measurement snapshots sometimes arrive without a record id; key
	// them by user and measurement time instead so re-syncs still collapse
	// onto one row.
	externalID := rec.ID.String()
	if externalID == "" {
		if rec.RecordedAt == nil {
			return nil, errRecordWithoutID
		}
		externalID = fmt.Sprintf("%s:%s", integration.ExternalUserID, rec.RecordedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode body measurement record: %w", err)
	}

	return &domain.BodyMeasurement{
		ExternalID:      externalID,
		UserID:          integration.UserID,
		ExternalUserID:  integration.ExternalUserID,
		RecordedAt:      rec.RecordedAt,
		HeightMeters:    coerceRound(rec.HeightMeter, 3),
		WeightKilograms: coerceRound(rec.WeightKilogram, 2),
		MaxHeartRate:    coerceRound(rec.MaxHeartRate, 1),
		Raw:             raw,
	}, nil
}
