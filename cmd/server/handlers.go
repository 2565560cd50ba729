package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mailsentinel/internal/bouncereport"
	"mailsentinel/internal/config"
	"mailsentinel/internal/orchestrator"
	"mailsentinel/internal/ratelimit"
)

type server struct {
	cfg       config.Config
	orch      *orchestrator.Orchestrator
	ipGate    *ratelimit.Gate
	agentGate *ratelimit.Gate
	bounceGate *ratelimit.Gate
	ledger    *bouncereport.Ledger
}

type verifyRequest struct {
	Emails []string `json:"emails"`
}

type usage struct {
	EmailsVerified int `json:"emailsVerified"`
	Requests       int `json:"requests"`
	DailyLimit     int `json:"dailyLimit"`
	Remaining      int `json:"remaining"`
}

type agentInfo struct {
	UID   string `json:"uid"`
	Usage usage  `json:"usage"`
}

type verifyResponse struct {
	Results []any      `json:"results"`
	Agent   *agentInfo `json:"agent,omitempty"`
}

func (s *server) identity(r *http.Request) (identity string, gate *ratelimit.Gate, isAgent bool) {
	uid := agentUID(r)
	if uid != "" {
		return uid, s.agentGate, true
	}
	xff, xrip := clientIdentityHeaders(r)
	return ratelimit.Identity("", xff, xrip), s.ipGate, false
}

func (s *server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 2<<20)).Decode(&req); err != nil || len(req.Emails) == 0 {
		http.Error(w, `{"error":"missing or invalid body"}`, http.StatusBadRequest)
		return
	}

	identity, gate, isAgent := s.identity(r)
	decision := gate.Admit(r.Context(), identity, len(req.Emails))
	if !decision.Allowed {
		writeAdmissionError(w, decision)
		return
	}
	defer decision.Release()

	emails := req.Emails
	if decision.Reserved < len(emails) {
		emails = emails[:decision.Reserved]
	}

	batch := s.orch.VerifyBatch(r.Context(), emails)

	resp := verifyResponse{Results: make([]any, len(batch.Results))}
	for i, res := range batch.Results {
		resp.Results[i] = res
	}

	if isAgent {
		used, cap, _ := s.agentGate.Usage(identity)
		resp.Agent = &agentInfo{
			UID: identity,
			Usage: usage{
				EmailsVerified: used,
				Requests:       used,
				DailyLimit:     cap,
				Remaining:      cap - used,
			},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type bounceRequest struct {
	Email string `json:"email"`
}

func (s *server) bounceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.ledger == nil {
		http.Error(w, `{"error":"bounce reporting not configured"}`, http.StatusServiceUnavailable)
		return
	}

	xff, xrip := clientIdentityHeaders(r)
	identity := ratelimit.Identity("", xff, xrip)
	decision := s.bounceGate.Admit(r.Context(), identity, 1)
	if !decision.Allowed {
		writeAdmissionError(w, decision)
		return
	}
	defer decision.Release()

	var req bounceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, `{"error":"missing email"}`, http.StatusBadRequest)
		return
	}

	if err := s.ledger.Report(r.Context(), req.Email, identity); err != nil {
		http.Error(w, `{"error":"could not record report"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *server) usageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid := agentUID(r)
	if uid == "" {
		http.Error(w, `{"error":"agent authentication required"}`, http.StatusUnauthorized)
		return
	}

	used, cap, resetAt := s.agentGate.Usage(uid)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"uid": uid,
		"usage": usage{
			EmailsVerified: used,
			Requests:       used,
			DailyLimit:     cap,
			Remaining:      cap - used,
		},
		"resetAt": resetAt.Format(time.RFC3339),
	})
}

func writeAdmissionError(w http.ResponseWriter, d ratelimit.Decision) {
	if d.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
	}
	status := http.StatusTooManyRequests
	if d.Reason == ratelimit.ReasonBatchTooLarge {
		status = http.StatusBadRequest
	}
	if d.Reason == ratelimit.ReasonGlobalCeiling {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": string(d.Reason)})
}
