package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"mailsentinel/internal/models"
)

// CheckApple probes Apple ID's federate endpoint, which reports whether an
// account name is tied to an existing Apple ID.
func (r *Registry) CheckApple(ctx context.Context, email string) models.Tri {
	if err := r.apple.wait(ctx); err != nil {
		return models.TriUnknown
	}

	payload, _ := json.Marshal(map[string]string{"accountName": email})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		appleEndpoint, bytes.NewReader(payload))
	if err != nil {
		return models.TriUnknown
	}
	req.Header.Set("Content-Type", "application/json")

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

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return models.TriUnknown
	}
	return models.TriFromBool(strings.Contains(buf.String(), `"hasSWP":true`))
}
