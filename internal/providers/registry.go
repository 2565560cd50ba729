package providers

import (
	"net/http"
	"time"

	"mailsentinel/internal/models"
)

// Endpoint bases, overridden in tests to point at an httptest server
// instead of the real provider.
var (
	microsoftEndpoint = "https://login.microsoftonline.com/common/GetCredentialType"
	googleEndpoint    = "https://android.clients.google.com/auth"
	appleEndpoint     = "https://appleid.apple.com/appleauth/auth/federate"
	gravatarEndpoint  = "https://www.gravatar.com/avatar/"
	githubEndpoint    = "https://api.github.com/search/users"
	pgpEndpoint       = "https://keys.openpgp.org/vks/v1/by-email/"
	hibpEndpoint      = "https://haveibeenpwned.com/api/v3/breachedaccount/"
)

// Registry holds the shared HTTP client and one FIFO per provider, matching
// the spacing table in the design's concurrency model.
type Registry struct {
	client *http.Client

	microsoft *fifo
	google    *fifo
	apple     *fifo
	gravatar  *fifo
	github    *fifo
	pgp       *fifo
	hibp      *fifo

	hibpAPIKey string
}

func NewRegistry(hibpAPIKey string) *Registry {
	return &Registry{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		microsoft:  newFIFO(500 * time.Millisecond),
		google:     newFIFO(3 * time.Second),
		apple:      newFIFO(2 * time.Second),
		gravatar:   newFIFO(200 * time.Millisecond),
		github:     newFIFO(6500 * time.Millisecond),
		pgp:        newFIFO(300 * time.Millisecond),
		hibp:       newFIFO(1600 * time.Millisecond),
		hibpAPIKey: hibpAPIKey,
	}
}

// HasHIBPKey reports whether an API key was configured, gating whether the
// HIBP probe runs at all.
func (r *Registry) HasHIBPKey() bool {
	return r.hibpAPIKey != ""
}

func triOrUnknown(ok bool, outcome bool) models.Tri {
	if !ok {
		return models.TriUnknown
	}
	return models.TriFromBool(outcome)
}
