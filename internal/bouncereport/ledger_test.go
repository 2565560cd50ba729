package bouncereport

import "testing"

func TestHashEmailNormalizesCase(t *testing.T) {
	a := HashEmail("  Alice@Example.com ")
	b := HashEmail("alice@example.com")
	if a != b {
		t.Errorf("expected hashes to match after normalization, got %q and %q", a, b)
	}
}

func TestHashEmailDiffers(t *testing.T) {
	a := HashEmail("alice@example.com")
	b := HashEmail("bob@example.com")
	if a == b {
		t.Error("expected different emails to hash differently")
	}
}
