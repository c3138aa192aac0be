package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("Computing dot layout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	// Stop blocks until the animation goroutine exits; reaching here
	// means the spinner wound down cleanly.
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Fetching snapshot...")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner not cancelled after context cancellation")
	}
}

func TestSpinnerStopsOnContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Fetching snapshot...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner not cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Computing dot layout...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopMessages(t *testing.T) {
	s := newSpinner("Computing dot layout...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Layout complete")

	s = newSpinner("Computing dot layout...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("Layout failed")
}

func TestSpinnerStopBeforeFirstFrame(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Fetching snapshot...")
	s.Start()
	s.Stop()
}
