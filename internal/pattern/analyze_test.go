package pattern

import "testing"

func TestAnalyzeBusinessPattern(t *testing.T) {
	a := Analyze("john.smith")
	if a.MatchedPattern != "firstname.lastname" {
		t.Errorf("MatchedPattern = %q, want firstname.lastname", a.MatchedPattern)
	}
	if !a.LooksHuman {
		t.Error("expected firstname.lastname to look human")
	}
}

func TestAnalyzeShortLocal(t *testing.T) {
	a := Analyze("ab")
	found := false
	for _, f := range a.Flags {
		if f == "unusually short" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'unusually short' flag, got %v", a.Flags)
	}
}

func TestAnalyzeMostlyNumeric(t *testing.T) {
	a := Analyze("user123456")
	found := false
	for _, f := range a.Flags {
		if f == "mostly numeric" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'mostly numeric' flag, got %v", a.Flags)
	}
}

func TestBulkAnomaliesFlagsOutlier(t *testing.T) {
	locals := []string{"john.smith", "jane.doe", "bob.jones", "xkq192"}
	domains := []string{"acme.com", "acme.com", "acme.com", "acme.com"}
	anomalies := BulkAnomalies(locals, domains)
	if !anomalies[3] {
		t.Error("expected xkq192 to be flagged as anomalous")
	}
	if anomalies[0] || anomalies[1] || anomalies[2] {
		t.Error("expected dominant-pattern members to not be flagged")
	}
}

func TestBulkAnomaliesSkipsSmallGroups(t *testing.T) {
	locals := []string{"john.smith", "xkq192"}
	domains := []string{"acme.com", "acme.com"}
	anomalies := BulkAnomalies(locals, domains)
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies flagged below batch-size floor, got %v", anomalies)
	}
}
