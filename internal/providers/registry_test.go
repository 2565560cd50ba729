package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mailsentinel/internal/models"
)

func TestCheckMicrosoft(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want models.Tri
	}{
		{"exists", `{"IfExistsResult":0}`, http.StatusOK, models.TriTrue},
		{"desktop sso exists", `{"IfExistsResult":5}`, http.StatusOK, models.TriTrue},
		{"does not exist", `{"IfExistsResult":1}`, http.StatusOK, models.TriFalse},
		{"ambiguous", `{"IfExistsResult":2}`, http.StatusOK, models.TriUnknown},
		{"server error", `{}`, http.StatusInternalServerError, models.TriUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			old := microsoftEndpoint
			microsoftEndpoint = srv.URL
			defer func() { microsoftEndpoint = old }()

			r := NewRegistry("")
			got := r.CheckMicrosoft(context.Background(), "someone@example.com")
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckGravatar(t *testing.T) {
	tests := []struct {
		name string
		code int
		want models.Tri
	}{
		{"has profile", http.StatusOK, models.TriTrue},
		{"no profile", http.StatusNotFound, models.TriFalse},
		{"unexpected status", http.StatusForbidden, models.TriUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			old := gravatarEndpoint
			gravatarEndpoint = srv.URL + "/"
			defer func() { gravatarEndpoint = old }()

			r := NewRegistry("")
			got := r.CheckGravatar(context.Background(), "someone@example.com")
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckHIBPSkippedWithoutKey(t *testing.T) {
	r := NewRegistry("")
	got := r.CheckHIBP(context.Background(), "someone@example.com")
	if got != models.TriUnknown {
		t.Errorf("expected TriUnknown without an API key, got %v", got)
	}
}

func TestCheckGitHubSearch(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.Tri
	}{
		{"found", `{"total_count":1}`, models.TriTrue},
		{"not found", `{"total_count":0}`, models.TriFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			old := githubEndpoint
			githubEndpoint = srv.URL
			defer func() { githubEndpoint = old }()

			r := NewRegistry("")
			got := r.CheckGitHub(context.Background(), "someone@example.com")
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
