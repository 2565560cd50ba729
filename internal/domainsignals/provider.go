package domainsignals

import "strings"

// staticProviderDomains covers consumer-brand mailbox hosts where the
// registrable domain itself identifies the provider, with no MX pattern
// matching needed.
var staticProviderDomains = map[string]string{
	"gmail.com":      "google",
	"googlemail.com": "google",
	"outlook.com":    "microsoft",
	"hotmail.com":    "microsoft",
	"live.com":       "microsoft",
	"icloud.com":     "apple",
	"me.com":         "apple",
	"mac.com":        "apple",
}

// IdentifyProvider classifies a domain's mail infrastructure from its MX
// hostnames (and, for consumer brands, the domain name itself). It never
// returns "unknown" — callers get "generic" when nothing matches.
func IdentifyProvider(domain string, mxHosts []string) string {
	if provider, ok := staticProviderDomains[strings.ToLower(domain)]; ok {
		return provider
	}

	for _, host := range mxHosts {
		h := strings.ToLower(host)

		switch {
		case strings.Contains(h, "pphosted.com"):
			return "proofpoint"
		case strings.Contains(h, "mimecast.com"):
			return "mimecast"
		case strings.Contains(h, "barracudanetworks.com"):
			return "barracuda"
		case strings.Contains(h, "aspmx.l.google.com"), strings.Contains(h, "google.com"), strings.Contains(h, "googlemail.com"):
			return "google"
		case strings.Contains(h, "mail.protection.outlook.com"), strings.Contains(h, "outlook.com"):
			return "microsoft"
		case strings.Contains(h, "mail.icloud.com"):
			return "apple"
		}
	}

	return "generic"
}

// IsMajorProvider reports whether provider is one of the consumer mailbox
// hosts known to actively block SMTP RCPT-based probing.
func IsMajorProvider(provider string) bool {
	switch provider {
	case "google", "microsoft", "apple":
		return true
	default:
		return false
	}
}
