package providers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"mailsentinel/internal/models"
)

// CheckGoogle probes the Android device-management auth endpoint Google
// Play Services uses, which leaks whether an account exists without
// authenticating.
func (r *Registry) CheckGoogle(ctx context.Context, email, domain string) models.Tri {
	if err := r.google.wait(ctx); err != nil {
		return models.TriUnknown
	}

	form := url.Values{
		"Email":            {email},
		"Passwd":           {"invalid-probe-password"},
		"service":          {"ac2dm"},
		"accountType":      {"HOSTED_OR_GOOGLE"},
		"source":           {"android"},
		"androidId":        {"0000000000000000"},
		"app":              {"com.google.android.gms"},
		"client_sig":       {"38918a453d07199354f8b19af05ec6562ced5788"},
		"callerPkg":        {"com.google.android.gms"},
		"callerSig":        {"38918a453d07199354f8b19af05ec6562ced5788"},
		"has_permission":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		googleEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.TriUnknown
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.TriUnknown
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	text := string(body)

	switch {
	case strings.Contains(text, "NeedsBrowser"), strings.Contains(text, "DeviceManagementRequiredOrSyncDisabled"):
		return models.TriTrue
	case strings.Contains(text, "BadAuthentication"):
		if domain == "gmail.com" || domain == "googlemail.com" {
			return models.TriTrue
		}
		// BadAuthentication is ambiguous on Workspace domains: custom auth
		// backends can return it for reasons unrelated to account existence.
		return models.TriUnknown
	case strings.Contains(text, "INVALID_EMAIL"):
		return models.TriFalse
	default:
		return models.TriUnknown
	}
}
