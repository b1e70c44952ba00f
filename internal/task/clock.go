package task

import (
	"context"
	"time"
)

// Clock abstracts time for the dispatcher so poll and backoff sleeps are
// observable in tests without real waiting.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for the given duration or until the context is done,
	// whichever comes first.
	Sleep(ctx context.Context, d time.Duration)
}

// systemClock is the production Clock backed by the time package.
type systemClock struct{}

// NewSystemClock returns the production Clock.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
