package domainsignals

import (
	"context"
	"net"
	"strconv"
	"strings"
)

// dnsblZones are the blacklist zones checked for the first MX host's IP.
var dnsblZones = []string{
	"zen.spamhaus.org",
	"bl.spamcop.net",
	"b.barracudacentral.org",
}

// CheckDNSBL resolves mxHost to its IPv4 address and queries each DNSBL
// zone with the reversed octets. Any successful resolution means listed.
// Returns false (not listed) on any resolution failure of mxHost itself —
// that is a DNS problem, not a blacklist signal.
func CheckDNSBL(ctx context.Context, mxHost string) bool {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", mxHost)
	if err != nil || len(ips) == 0 {
		return false
	}

	reversed := reverseIPv4(ips[0])
	if reversed == "" {
		return false
	}

	for _, zone := range dnsblZones {
		if ctx.Err() != nil {
			break
		}
		if _, err := net.DefaultResolver.LookupHost(ctx, reversed+"."+zone); err == nil {
			return true
		}
	}
	return false
}

func reverseIPv4(ip net.IP) string {
	v4 := ip.To4()
	if v4 == nil {
		return ""
	}
	parts := make([]string, 4)
	for i := 0; i < 4; i++ {
		parts[3-i] = strconv.Itoa(int(v4[i]))
	}
	return strings.Join(parts, ".")
}
