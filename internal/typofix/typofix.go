// Package typofix maps common domain misspellings to their canonical form,
// the way a mail client suggests "did you mean gmail.com?".
package typofix

var canonical = map[string]string{
	// Gmail
	"gmial.com": "gmail.com", "gmai.com": "gmail.com", "gmil.com": "gmail.com",
	"gamil.com": "gmail.com", "gnail.com": "gmail.com", "gmaill.com": "gmail.com",
	"gmail.co": "gmail.com", "gmail.cm": "gmail.com",

	// Yahoo
	"yaho.com": "yahoo.com", "yahou.com": "yahoo.com", "yhoo.com": "yahoo.com",
	"yahoo.co": "yahoo.com", "yahoo.cm": "yahoo.com",

	// Outlook / Hotmail / Live
	"outlok.com": "outlook.com", "outlock.com": "outlook.com", "otlook.com": "outlook.com",
	"hotmial.com": "hotmail.com", "hotmil.com": "hotmail.com", "hotmal.com": "hotmail.com",
	"liv.com": "live.com", "lives.com": "live.com",

	// iCloud
	"icloud.co": "icloud.com", "iclod.com": "icloud.com", "icoud.com": "icloud.com",

	// AOL
	"aol.co": "aol.com", "aoll.com": "aol.com",

	// Proton
	"protonmial.com": "protonmail.com", "protonmai.com": "protonmail.com",
}

// Suggest returns the canonical domain for a known misspelling, or "" if
// domain is not in the map (including if it's already canonical).
func Suggest(domain string) string {
	return canonical[domain]
}
