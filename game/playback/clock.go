package playback

import (
	"context"
	"time"
)

// Clock suspends playback between frames.
type Clock interface {
	// Sleep waits for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock waits on a timer.
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InstantClock never waits. It lets tests drive a whole playback
// synchronously while still observing cancellation.
type InstantClock struct{}

func (InstantClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
