package sync

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// coerceFloat normalizes a loosely-decoded provider value to a float. Strings
// that parse as numbers are accepted; NaN, infinities, and anything
// non-numeric become nil instead of an error. Malformed upstream data must
// never abort a sync pass.
func coerceFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return finiteOrNil(t)
	case float32:
		return finiteOrNil(float64(t))
	case int:
		return finiteOrNil(float64(t))
	case int64:
		return finiteOrNil(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	default:
		return nil
	}
}

// coerceRound is coerceFloat followed by rounding to a fixed number of
// decimal places, so repeated syncs of the same upstream value store an
// identical representation.
func coerceRound(v any, places int) *float64 {
	f := coerceFloat(v)
	if f == nil {
		return nil
	}
	rounded := roundTo(*f, places)
	return &rounded
}

func finiteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow10(places)
	return math.Round(v*factor) / factor
}

// durationMinutes derives a session length from its start and end timestamps.
// Missing timestamps or a non-positive span yield nil; the provider
// occasionally emits end-before-start records and those durations are
// meaningless.
func durationMinutes(start, end *time.Time) *float64 {
	if start == nil || end == nil {
		return nil
	}

	minutes := end.Sub(*start).Minutes()
	if minutes <= 0 {
		return nil
	}

	rounded := roundTo(minutes, 1)
	return &rounded
}
