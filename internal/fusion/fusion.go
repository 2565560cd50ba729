// Package fusion computes the final status, confidence and explanatory
// notes for one email address from all evidence gathered by the other
// collectors. Fusion itself touches no network and is pure: identical
// evidence always produces an identical verdict.
package fusion

import "mailsentinel/internal/models"

// Input bundles every signal the fusion ladder and scoring table consult.
type Input struct {
	Email  string
	Domain string

	SyntaxValid bool

	Mx models.Tri // unknown|true|false, mirrors MxLookupResult.hasMx/unknown
	ViaImplicitMx bool

	Smtp *models.SmtpVerdict // nil when never attempted

	Providers models.ProviderChecks
	Intel     models.DomainIntel

	IsDisposable  bool
	IsRoleAccount bool
	LooksHuman    bool
	PatternFlagged bool
	BulkAnomaly    bool

	SuggestedEmail string

	MajorProviderDomain bool
	UniqueBounceReporters int
}

const (
	providerFloorMicrosoft = 93
	providerFloorGoogle    = 94
	providerFloorApple     = 93
	providerCeilOnFalse    = 5

	floorGravatar = 80
	floorGitHub   = 82
	floorPGP      = 80
	floorHIBP     = 78

	maxConfidence = 97
	minConfidence = 0
)

// Fuse runs the status ladder and confidence scoring table and returns the
// finished result. It never performs I/O.
func Fuse(in Input) models.VerifyResult {
	result := models.VerifyResult{
		Email:          in.Email,
		Domain:         in.Domain,
		Mx:             in.Mx,
		Smtp:           in.Smtp,
		ProviderChecks: in.Providers,
		DomainIntel:    in.Intel,
		SuggestedEmail: in.SuggestedEmail,
	}

	if !in.SyntaxValid {
		result.Status = models.StatusInvalid
		result.Confidence = 0
		result.Notes = append(result.Notes, "Invalid syntax")
		return result
	}

	var notes []string
	note := func(n string) { notes = append(notes, n) }

	anyProviderTrue := in.Providers.Microsoft == models.TriTrue ||
		in.Providers.Google == models.TriTrue ||
		in.Providers.Apple == models.TriTrue
	anyIdentityProviderFalse := in.Providers.Microsoft == models.TriFalse ||
		in.Providers.Google == models.TriFalse ||
		in.Providers.Apple == models.TriFalse
	anySecondaryTrue := in.Providers.Gravatar == models.TriTrue ||
		in.Providers.GitHub == models.TriTrue ||
		in.Providers.PGP == models.TriTrue ||
		in.Providers.HIBP == models.TriTrue

	hasRiskFlag := in.IsRoleAccount || in.IsDisposable

	status := statusLadder(in, anyProviderTrue, anyIdentityProviderFalse, anySecondaryTrue, hasRiskFlag, note)
	result.Status = status

	score := baselineScore(in, note)
	score = applyProviderAdjustments(score, in, note)
	score = applyDomainAdjustments(score, in, note)
	score = applyRiskAdjustments(score, in, note)

	if in.UniqueBounceReporters >= 2 {
		score -= 20
		note("Reported by multiple independent senders as bouncing")
	}

	if score > maxConfidence {
		score = maxConfidence
	}
	if score < minConfidence {
		score = minConfidence
	}

	if status == models.StatusInvalid && score > 5 {
		score = 5
	}

	result.Confidence = score
	result.Notes = notes
	return result
}

func statusLadder(in Input, anyProviderTrue, anyIdentityProviderFalse, anySecondaryTrue, hasRiskFlag bool, note func(string)) models.Status {
	switch {
	case in.Mx == models.TriUnknown:
		note("Could not resolve mail servers for this domain")
		return models.StatusUnknown
	case in.Mx == models.TriFalse:
		note("Domain has no mail servers")
		return models.StatusInvalid
	case in.Smtp != nil && in.Smtp.Verdict == models.SmtpRejected && !anyProviderTrue:
		note("Mailbox rejected by mail server")
		return models.StatusInvalid
	case anyIdentityProviderFalse:
		note("Provider confirms this address does not exist")
		return models.StatusInvalid
	case anyProviderTrue && !hasRiskFlag:
		note("Provider confirms this address exists")
		return models.StatusValid
	case in.Smtp != nil && (in.Smtp.Verdict == models.SmtpCatchAll || in.Smtp.Verdict == models.SmtpGreylisted):
		if in.Smtp.Verdict == models.SmtpCatchAll {
			note("Mail server accepts any address for this domain (catch-all)")
		} else {
			note("Mail server deferred the check (greylisting)")
		}
		return models.StatusRisky
	case hasRiskFlag:
		if in.IsDisposable {
			note("Disposable mailbox provider")
		}
		if in.IsRoleAccount {
			note("Role-based mailbox, not a named individual")
		}
		return models.StatusRisky
	case in.Smtp != nil && in.Smtp.Verdict == models.SmtpAccepted:
		note("Mailbox accepted by mail server")
		return models.StatusValid
	case anySecondaryTrue:
		note("Found matching public profile for this address")
		return models.StatusValid
	case in.MajorProviderDomain && (in.Smtp == nil || in.Smtp.Verdict == models.SmtpError):
		note("Hosted by a major provider with no contrary signal")
		return models.StatusValid
	default:
		return models.StatusUnknown
	}
}

func baselineScore(in Input, note func(string)) int {
	if in.Smtp == nil {
		if in.MajorProviderDomain {
			return 65
		}
		return 35
	}
	switch in.Smtp.Verdict {
	case models.SmtpAccepted:
		return 85
	case models.SmtpRejected:
		note("Mail server explicitly rejected this address")
		return 3
	case models.SmtpCatchAll:
		note("Domain accepts any address; existence unconfirmed")
		return 45
	case models.SmtpGreylisted:
		return 40
	default: // error
		if in.MajorProviderDomain {
			return 65
		}
		return 35
	}
}

func applyProviderAdjustments(score int, in Input, note func(string)) int {
	floor := func(s, f int, label string) int {
		if s < f {
			note(label + " confirms this mailbox exists")
			return f
		}
		return s
	}

	switch in.Providers.Microsoft {
	case models.TriTrue:
		score = floor(score, providerFloorMicrosoft, "Microsoft")
	case models.TriFalse:
		score = min(score, providerCeilOnFalse)
	}
	switch in.Providers.Google {
	case models.TriTrue:
		score = floor(score, providerFloorGoogle, "Google")
	case models.TriFalse:
		score = min(score, providerCeilOnFalse)
	}
	switch in.Providers.Apple {
	case models.TriTrue:
		score = floor(score, providerFloorApple, "Apple")
	case models.TriFalse:
		score = min(score, providerCeilOnFalse)
	}

	if in.Providers.Gravatar == models.TriTrue {
		score = floor(score, floorGravatar, "Gravatar")
	}
	if in.Providers.GitHub == models.TriTrue {
		score = floor(score, floorGitHub, "GitHub")
	}
	if in.Providers.PGP == models.TriTrue {
		score = floor(score, floorPGP, "A published PGP key")
	}
	if in.Providers.HIBP == models.TriTrue {
		score = floor(score, floorHIBP, "Breach history")
	}

	return score
}

func applyDomainAdjustments(score int, in Input, note func(string)) int {
	if in.ViaImplicitMx && score > 50 {
		score -= 15
		note("Domain has no explicit MX, falling back to the A record")
	}

	if in.Intel.HasSPF && in.Intel.HasDMARC {
		score += 3
		note("Domain publishes SPF and DMARC")
	} else {
		score -= 10
		note("Domain is missing SPF or DMARC")
	}

	if in.Intel.WebsiteAlive == models.TriFalse {
		score -= 10
		note("Domain's website is not reachable")
	}
	if in.Intel.IsParked {
		score -= 15
		note("Domain appears parked")
	}
	if in.Intel.Blacklisted {
		score -= 20
		note("Mail server IP is DNS-blacklisted")
	}
	if in.Intel.DomainAgeDays > 0 && in.Intel.DomainAgeDays < 30 {
		score -= 15
		note("Domain was registered recently")
	}

	return score
}

func applyRiskAdjustments(score int, in Input, note func(string)) int {
	if !in.LooksHuman {
		score -= 10
		note("Local part does not resemble a human name")
	}
	if in.PatternFlagged || in.BulkAnomaly {
		score -= 5
		note("Local part pattern is unusual for this domain")
	}
	if in.IsDisposable && score > 25 {
		score = 25
	}
	if in.IsRoleAccount {
		score -= 10
	}
	return score
}
