package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"mailsentinel/internal/models"
)

type githubSearchResponse struct {
	TotalCount int `json:"total_count"`
}

// CheckGitHub searches the public user index by email. GitHub only indexes
// emails users have chosen to make searchable, so this is a low-recall
// signal and callers should skip it on batch requests larger than one
// address to avoid burning the shared rate budget on a weak signal.
func (r *Registry) CheckGitHub(ctx context.Context, email string) models.Tri {
	if err := r.github.wait(ctx); err != nil {
		return models.TriUnknown
	}

	q := url.QueryEscape(email + " in:email")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		githubEndpoint+"?q="+q, nil)
	if err != nil {
		return models.TriUnknown
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.TriUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return models.TriUnknown
	}
	if resp.StatusCode != http.StatusOK {
		return models.TriUnknown
	}

	var result githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.TriUnknown
	}
	return models.TriFromBool(result.TotalCount > 0)
}
