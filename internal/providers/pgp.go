package providers

import (
	"context"
	"net/http"
	"net/url"

	"mailsentinel/internal/models"
)

// CheckPGP HEADs the OpenPGP keyserver's by-email lookup, which returns 200
// when a key is published for the address and 404 otherwise.
func (r *Registry) CheckPGP(ctx context.Context, email string) models.Tri {
	if err := r.pgp.wait(ctx); err != nil {
		return models.TriUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead,
		pgpEndpoint+url.PathEscape(email), nil)
	if err != nil {
		return models.TriUnknown
	}

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
