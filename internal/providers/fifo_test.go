package providers

import (
	"context"
	"testing"
	"time"
)

func TestFIFOSpacing(t *testing.T) {
	f := newFIFO(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := f.wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := f.wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("expected second call to wait at least 50ms, waited %v", elapsed)
	}
}

func TestFIFOCancel(t *testing.T) {
	f := newFIFO(time.Hour)
	ctx := context.Background()
	if err := f.wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := f.wait(cancelCtx); err == nil {
		t.Error("expected wait on cancelled context to return an error")
	}
}
