package providers

import (
	"context"
	"net/http"
	"net/url"

	"mailsentinel/internal/models"
)

// CheckHIBP queries Have I Been Pwned's breached-account endpoint. Skipped
// entirely by callers when no API key is configured — see HasHIBPKey.
func (r *Registry) CheckHIBP(ctx context.Context, email string) models.Tri {
	if !r.HasHIBPKey() {
		return models.TriUnknown
	}
	if err := r.hibp.wait(ctx); err != nil {
		return models.TriUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		hibpEndpoint+url.PathEscape(email)+"?truncateResponse=true", nil)
	if err != nil {
		return models.TriUnknown
	}
	req.Header.Set("hibp-api-key", r.hibpAPIKey)
	req.Header.Set("User-Agent", "mailsentinel")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.TriUnknown
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return triOrUnknown(true, true)
	case http.StatusNotFound:
		return triOrUnknown(true, false)
	default:
		return models.TriUnknown
	}
}
