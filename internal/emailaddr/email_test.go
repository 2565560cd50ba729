package emailaddr

import "testing"

func TestParseValid(t *testing.T) {
	a := Parse(" Mailto:Alice.Smith@Example.COM ")
	if !a.Valid {
		t.Fatal("expected address to parse as valid")
	}
	if a.Local != "alice.smith" || a.Domain != "example.com" {
		t.Errorf("got local=%q domain=%q", a.Local, a.Domain)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{"", "noatsign", "double@@at.com", "missing@", "@missingdomain.com"}
	for _, raw := range tests {
		a := Parse(raw)
		if a.Valid {
			t.Errorf("Parse(%q).Valid = true, want false", raw)
		}
	}
}

func TestParseTooLong(t *testing.T) {
	local := ""
	for i := 0; i < 260; i++ {
		local += "a"
	}
	a := Parse(local + "@example.com")
	if a.Valid {
		t.Error("expected over-length address to be invalid")
	}
}
