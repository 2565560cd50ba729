package typofix

import "testing"

func TestSuggestKnownMisspelling(t *testing.T) {
	if got := Suggest("gmial.com"); got != "gmail.com" {
		t.Errorf("Suggest(gmial.com) = %q, want gmail.com", got)
	}
}

func TestSuggestCanonicalDomain(t *testing.T) {
	if got := Suggest("gmail.com"); got != "" {
		t.Errorf("Suggest(gmail.com) = %q, want empty", got)
	}
}

func TestSuggestUnknownDomain(t *testing.T) {
	if got := Suggest("example.com"); got != "" {
		t.Errorf("Suggest(example.com) = %q, want empty", got)
	}
}
