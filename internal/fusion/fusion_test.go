package fusion

import (
	"testing"

	"mailsentinel/internal/models"
)

func TestFuseInvalidSyntax(t *testing.T) {
	result := Fuse(Input{SyntaxValid: false})
	if result.Status != models.StatusInvalid {
		t.Errorf("status = %v, want Invalid", result.Status)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", result.Confidence)
	}
	if len(result.Notes) == 0 || result.Notes[0] != "Invalid syntax" {
		t.Errorf("notes = %v, want first note \"Invalid syntax\"", result.Notes)
	}
}

func TestFuseAcceptedSMTP(t *testing.T) {
	result := Fuse(Input{
		Email:       "alice@example.com",
		Domain:      "example.com",
		SyntaxValid: true,
		Mx:          models.TriTrue,
		Smtp:        &models.SmtpVerdict{Verdict: models.SmtpAccepted, Host: "mx.example.com"},
		Intel:       models.DomainIntel{HasSPF: true, HasDMARC: true},
		LooksHuman:  true,
	})
	if result.Status != models.StatusValid {
		t.Errorf("status = %v, want Valid", result.Status)
	}
	if result.Confidence < 85 {
		t.Errorf("confidence = %d, want >= 85", result.Confidence)
	}
}

func TestFuseGoogleProviderExists(t *testing.T) {
	result := Fuse(Input{
		Email:       "alice@gmail.com",
		Domain:      "gmail.com",
		SyntaxValid: true,
		Mx:          models.TriTrue,
		Smtp:        &models.SmtpVerdict{Verdict: models.SmtpError},
		Providers:   models.ProviderChecks{Google: models.TriTrue},
		Intel:       models.DomainIntel{HasSPF: true, HasDMARC: true},
		LooksHuman:  true,
	})
	if result.Status != models.StatusValid {
		t.Errorf("status = %v, want Valid", result.Status)
	}
	if result.Confidence < 94 {
		t.Errorf("confidence = %d, want >= 94", result.Confidence)
	}
}

func TestFuseDisposableRoleAccount(t *testing.T) {
	result := Fuse(Input{
		Email:         "admin@mailinator.com",
		Domain:        "mailinator.com",
		SyntaxValid:   true,
		Mx:            models.TriTrue,
		Smtp:          &models.SmtpVerdict{Verdict: models.SmtpAccepted},
		IsDisposable:  true,
		IsRoleAccount: true,
		LooksHuman:    true,
	})
	if result.Status != models.StatusRisky {
		t.Errorf("status = %v, want Risky", result.Status)
	}
	if result.Confidence > 25 {
		t.Errorf("confidence = %d, want <= 25", result.Confidence)
	}
}

func TestFuseParkedRecentDomain(t *testing.T) {
	baseline := Fuse(Input{
		Email:       "user@parked-new.example",
		Domain:      "parked-new.example",
		SyntaxValid: true,
		Mx:          models.TriTrue,
		Smtp:        &models.SmtpVerdict{Verdict: models.SmtpAccepted},
		LooksHuman:  true,
	})

	parked := Fuse(Input{
		Email:       "user@parked-new.example",
		Domain:      "parked-new.example",
		SyntaxValid: true,
		Mx:          models.TriTrue,
		Smtp:        &models.SmtpVerdict{Verdict: models.SmtpAccepted},
		Intel:       models.DomainIntel{IsParked: true, DomainAgeDays: 10},
		LooksHuman:  true,
	})

	if parked.Confidence > baseline.Confidence-30 {
		t.Errorf("parked confidence %d not at least 30 below baseline %d", parked.Confidence, baseline.Confidence)
	}
	foundParked, foundAge := false, false
	for _, n := range parked.Notes {
		if n == "Domain appears parked" {
			foundParked = true
		}
		if n == "Domain was registered recently" {
			foundAge = true
		}
	}
	if !foundParked || !foundAge {
		t.Errorf("expected both parked and domain-age notes, got %v", parked.Notes)
	}
}

func TestFuseMxAbsent(t *testing.T) {
	result := Fuse(Input{Email: "user@nodomain.invalid", SyntaxValid: true, Mx: models.TriFalse})
	if result.Status != models.StatusInvalid {
		t.Errorf("status = %v, want Invalid", result.Status)
	}
	if result.Confidence > 5 {
		t.Errorf("confidence = %d, want <= 5", result.Confidence)
	}
}

func TestFuseMxUnknown(t *testing.T) {
	result := Fuse(Input{Email: "user@flaky-dns.example", SyntaxValid: true, Mx: models.TriUnknown})
	if result.Status != models.StatusUnknown {
		t.Errorf("status = %v, want Unknown", result.Status)
	}
}

func TestFuseProviderFalseOverridesAccepted(t *testing.T) {
	result := Fuse(Input{
		Email:       "ghost@outlook.com",
		Domain:      "outlook.com",
		SyntaxValid: true,
		Mx:          models.TriTrue,
		Smtp:        &models.SmtpVerdict{Verdict: models.SmtpAccepted},
		Providers:   models.ProviderChecks{Microsoft: models.TriFalse},
		LooksHuman:  true,
	})
	if result.Status != models.StatusInvalid {
		t.Errorf("status = %v, want Invalid", result.Status)
	}
	if result.Confidence > 5 {
		t.Errorf("confidence = %d, want <= 5", result.Confidence)
	}
}

func TestFuseConfidenceNeverExceedsCeiling(t *testing.T) {
	result := Fuse(Input{
		Email:       "alice@gmail.com",
		Domain:      "gmail.com",
		SyntaxValid: true,
		Mx:          models.TriTrue,
		Smtp:        &models.SmtpVerdict{Verdict: models.SmtpAccepted},
		Providers: models.ProviderChecks{
			Microsoft: models.TriTrue, Google: models.TriTrue, Apple: models.TriTrue,
			Gravatar: models.TriTrue, GitHub: models.TriTrue, PGP: models.TriTrue, HIBP: models.TriTrue,
		},
		Intel:      models.DomainIntel{HasSPF: true, HasDMARC: true},
		LooksHuman: true,
	})
	if result.Confidence > 97 {
		t.Errorf("confidence = %d, must never exceed 97", result.Confidence)
	}
}
