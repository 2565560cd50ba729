// Package domainsignals collects independent, best-effort evidence about a
// domain: SPF/DMARC/DKIM/MTA-STS/BIMI TXT records, website liveness and
// parked-page detection, RDAP registration age, and DNSBL membership. Every
// collector returns a zero-value/unknown result on error rather than an
// error — per-collector failure never blocks the others.
package domainsignals

import (
	"context"
	"net"
	"strings"
)

// dkimSelectors is a fixed list of common DKIM selector labels, checked
// under <selector>._domainkey.<domain>.
var dkimSelectors = []string{
	"default", "selector1", "selector2", "google", "k1", "k2",
	"dkim", "mail", "smtp", "s1", "s2", "mandrill", "mxvault",
}

// CheckSPF reports whether domain publishes an SPF TXT record.
func CheckSPF(ctx context.Context, domain string) bool {
	txts, err := net.DefaultResolver.LookupTXT(ctx, domain)
	if err != nil {
		return false
	}
	for _, txt := range txts {
		if strings.HasPrefix(txt, "v=spf1") {
			return true
		}
	}
	return false
}

// CheckDMARC reports whether a DMARC policy record exists.
func CheckDMARC(ctx context.Context, domain string) bool {
	txts, err := net.DefaultResolver.LookupTXT(ctx, "_dmarc."+domain)
	if err != nil {
		return false
	}
	for _, txt := range txts {
		if strings.HasPrefix(txt, "v=DMARC1") {
			return true
		}
	}
	return false
}

// CheckMTASTS reports whether domain publishes an MTA-STS policy TXT record.
func CheckMTASTS(ctx context.Context, domain string) bool {
	txts, err := net.DefaultResolver.LookupTXT(ctx, "_mta-sts."+domain)
	return err == nil && len(txts) > 0
}

// CheckBIMI reports whether domain publishes a BIMI TXT record.
func CheckBIMI(ctx context.Context, domain string) bool {
	txts, err := net.DefaultResolver.LookupTXT(ctx, "_bimi."+domain)
	return err == nil && len(txts) > 0
}

// ScanDKIMSelectors checks the fixed selector list and returns those for
// which a TXT record exists.
func ScanDKIMSelectors(ctx context.Context, domain string) []string {
	var present []string
	for _, sel := range dkimSelectors {
		if ctx.Err() != nil {
			break
		}
		txts, err := net.DefaultResolver.LookupTXT(ctx, sel+"._domainkey."+domain)
		if err == nil && len(txts) > 0 {
			present = append(present, sel)
		}
	}
	return present
}
