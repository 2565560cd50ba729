package providers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"mailsentinel/internal/models"
)

// CheckGravatar HEADs the avatar endpoint with d=404, which Gravatar answers
// with 404 when no profile is registered for the email's hash and 200
// otherwise.
func (r *Registry) CheckGravatar(ctx context.Context, email string) models.Tri {
	if err := r.gravatar.wait(ctx); err != nil {
		return models.TriUnknown
	}

	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	hash := hex.EncodeToString(sum[:])

	req, err := http.NewRequestWithContext(ctx, http.MethodHead,
		fmt.Sprintf("%s%s?d=404", gravatarEndpoint, hash), nil)
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
