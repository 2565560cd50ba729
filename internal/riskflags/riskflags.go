// Package riskflags identifies domains and local-parts that carry elevated
// risk regardless of deliverability: disposable mailbox providers and
// generic role accounts.
package riskflags

import "strings"

var disposableDomains = map[string]struct{}{
	"temp-mail.org": {}, "10minutemail.com": {}, "guerrillamail.com": {},
	"mailinator.com": {}, "yopmail.com": {}, "throwawaymail.com": {},
	"tempmail.net": {}, "sharklasers.com": {}, "dispostable.com": {},
	"trashmail.com": {}, "getnada.com": {}, "mintemail.com": {},
	"fakeinbox.com": {}, "mailnesia.com": {},
}

var roleAccounts = map[string]struct{}{
	"admin": {}, "support": {}, "info": {}, "sales": {},
	"contact": {}, "help": {}, "office": {}, "marketing": {},
	"jobs": {}, "billing": {}, "abuse": {}, "postmaster": {},
	"noreply": {}, "no-reply": {}, "webmaster": {}, "hostmaster": {},
	"hr": {}, "security": {}, "privacy": {}, "legal": {},
}

// IsDisposableDomain reports whether domain is a known burner mail provider.
func IsDisposableDomain(domain string) bool {
	_, ok := disposableDomains[strings.ToLower(domain)]
	return ok
}

// IsRoleAccount reports whether local is a generic function mailbox rather
// than a person.
func IsRoleAccount(local string) bool {
	_, ok := roleAccounts[strings.ToLower(local)]
	return ok
}
