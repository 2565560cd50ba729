package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"mailsentinel/internal/models"
)

type msCredentialResponse struct {
	IfExistsResult int `json:"IfExistsResult"`
}

// CheckMicrosoft reports whether email resolves to a Microsoft-managed
// identity via the GetCredentialType endpoint used by the Office365/Azure AD
// login flow.
func (r *Registry) CheckMicrosoft(ctx context.Context, email string) models.Tri {
	if err := r.microsoft.wait(ctx); err != nil {
		return models.TriUnknown
	}

	payload, _ := json.Marshal(map[string]string{"username": email})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		microsoftEndpoint, bytes.NewReader(payload))
	if err != nil {
		return models.TriUnknown
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.TriUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.TriUnknown
	}

	var result msCredentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.TriUnknown
	}

	switch result.IfExistsResult {
	case 0, 5, 6:
		return models.TriTrue
	case 1:
		return models.TriFalse
	default:
		return models.TriUnknown
	}
}
