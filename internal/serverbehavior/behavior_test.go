package serverbehavior

import "testing"

func TestSuspectedCatchAllRequiresHistory(t *testing.T) {
	tr := New()
	for i := 0; i < 5; i++ {
		tr.Record("mx.example.com", true, false, false)
	}
	if tr.SuspectedCatchAll("mx.example.com") {
		t.Error("expected too little history to not be flagged")
	}
}

func TestSuspectedCatchAllHighAcceptRate(t *testing.T) {
	tr := New()
	for i := 0; i < 20; i++ {
		tr.Record("mx.example.com", true, false, false)
	}
	if !tr.SuspectedCatchAll("mx.example.com") {
		t.Error("expected high accept rate over threshold to be flagged")
	}
}

func TestSuspectedCatchAllLowAcceptRate(t *testing.T) {
	tr := New()
	for i := 0; i < 20; i++ {
		tr.Record("mx.example.com", false, true, false)
	}
	if tr.SuspectedCatchAll("mx.example.com") {
		t.Error("expected low accept rate to not be flagged")
	}
}

func TestSuspectedCatchAllUnknownHost(t *testing.T) {
	tr := New()
	if tr.SuspectedCatchAll("never-seen.example.com") {
		t.Error("expected unknown host to not be flagged")
	}
}
