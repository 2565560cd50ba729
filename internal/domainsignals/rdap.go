package domainsignals

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// CheckDomainAge queries rdap.org for the domain's registration event and
// returns its age in whole days. Returns 0 on any error or if no
// registration event is present — the fusion engine treats 0 as "no
// signal", not "registered today".
func CheckDomainAge(ctx context.Context, domain string) int {
	target := "https://rdap.org/domain/" + domain

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := sharedClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0
	}

	var rdap struct {
		Events []struct {
			Action string `json:"eventAction"`
			Date   string `json:"eventDate"`
		} `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rdap); err != nil {
		return 0
	}

	var created time.Time
	for _, event := range rdap.Events {
		if event.Action != "registration" && event.Action != "creation" {
			continue
		}
		t, err := time.Parse(time.RFC3339, event.Date)
		if err != nil {
			continue
		}
		if created.IsZero() || t.Before(created) {
			created = t
		}
	}

	if created.IsZero() {
		return 0
	}
	return int(time.Since(created).Hours() / 24)
}
