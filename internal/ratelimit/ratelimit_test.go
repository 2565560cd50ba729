package ratelimit

import (
	"context"
	"testing"
)

func TestAdmitBatchTooLarge(t *testing.T) {
	g := New(Limits{RPM: 60, DailyCap: 1000, MaxConcurrency: 5}, 500, 0)
	d := g.Admit(context.Background(), "1.2.3.4", 501)
	if d.Allowed {
		t.Fatal("expected batch over cap to be refused")
	}
	if d.Reason != ReasonBatchTooLarge {
		t.Errorf("reason = %v, want %v", d.Reason, ReasonBatchTooLarge)
	}
}

func TestAdmitDailyCapReserveAndTruncate(t *testing.T) {
	g := New(Limits{RPM: 1000, DailyCap: 10, MaxConcurrency: 5}, 500, 0)
	d := g.Admit(context.Background(), "1.2.3.4", 20)
	if !d.Allowed {
		t.Fatalf("expected request to be admitted with truncation, got reason %v", d.Reason)
	}
	if d.Reserved != 10 {
		t.Errorf("reserved = %d, want 10", d.Reserved)
	}
	d.Release()

	d2 := g.Admit(context.Background(), "1.2.3.4", 1)
	if d2.Allowed {
		t.Error("expected daily cap to be exhausted after first reservation")
	}
	if d2.Reason != ReasonDailyCap {
		t.Errorf("reason = %v, want %v", d2.Reason, ReasonDailyCap)
	}
}

func TestAdmitConcurrencyLimit(t *testing.T) {
	g := New(Limits{RPM: 1000, DailyCap: 1000, MaxConcurrency: 1}, 500, 0)
	d1 := g.Admit(context.Background(), "agent-1", 1)
	if !d1.Allowed {
		t.Fatalf("expected first request to be admitted, got reason %v", d1.Reason)
	}
	d2 := g.Admit(context.Background(), "agent-1", 1)
	if d2.Allowed {
		t.Error("expected second concurrent request from the same identity to be refused")
	}
	if d2.Reason != ReasonConcurrency {
		t.Errorf("reason = %v, want %v", d2.Reason, ReasonConcurrency)
	}
	d1.Release()

	d3 := g.Admit(context.Background(), "agent-1", 1)
	if !d3.Allowed {
		t.Errorf("expected request to be admitted after release, got reason %v", d3.Reason)
	}
}

func TestIdentityResolution(t *testing.T) {
	if got := Identity("agent-42", "1.1.1.1", "2.2.2.2"); got != "agent-42" {
		t.Errorf("identity = %q, want agent uid to win", got)
	}
	if got := Identity("", "1.1.1.1, 3.3.3.3", "2.2.2.2"); got != "1.1.1.1" {
		t.Errorf("identity = %q, want first X-Forwarded-For hop", got)
	}
	if got := Identity("", "", "2.2.2.2"); got != "2.2.2.2" {
		t.Errorf("identity = %q, want X-Real-IP", got)
	}
	if got := Identity("", "", ""); got != "unknown" {
		t.Errorf("identity = %q, want unknown", got)
	}
}
