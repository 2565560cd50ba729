package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	s := New()
	s.Set("k", "v", time.Minute)
	v, ok := s.Get("k")
	if !ok || v != "v" {
		t.Fatalf("got (%v, %v), want (v, true)", v, ok)
	}
}

func TestGetExpired(t *testing.T) {
	s := New()
	s.Set("k", "v", -time.Second)
	if _, ok := s.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCleanupRemovesExpired(t *testing.T) {
	s := New()
	s.Set("stale", "v", -time.Second)
	s.Set("fresh", "v", time.Minute)
	s.Cleanup()
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after cleanup", s.Len())
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("expected fresh entry to survive cleanup")
	}
}

func TestIndependentInstances(t *testing.T) {
	a, b := New(), New()
	a.Set("k", "a-value", time.Minute)
	if _, ok := b.Get("k"); ok {
		t.Error("expected separate Store instances to not share keys")
	}
}
