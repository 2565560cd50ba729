// Package dnsresolve resolves a domain's mail exchangers, falling back to
// the RFC 5321 §5.1 implicit-MX rule, and caches results per domain.
package dnsresolve

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"mailsentinel/internal/cache"
	"mailsentinel/internal/models"
)

// Resolver resolves MX records with a per-process TTL cache.
type Resolver struct {
	store   *cache.Store
	ttl     time.Duration
	timeout time.Duration
	net     *net.Resolver
}

func New(ttl, timeout time.Duration) *Resolver {
	return &Resolver{
		store:   cache.New(),
		ttl:     ttl,
		timeout: timeout,
		net: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: 3 * time.Second}
				return d.DialContext(ctx, network, address)
			},
		},
	}
}

// StartCleanup runs the underlying MX cache's periodic eviction sweep until
// ctx is cancelled.
func (r *Resolver) StartCleanup(ctx context.Context, interval time.Duration) {
	r.store.StartCleanup(ctx, interval)
}

// Resolve returns the MX hosts for domain, ascending by preference, with
// A/AAAA implicit-MX fallback. Unknown=true means the lookup itself failed
// (timeout or similar) and the caller should treat the domain as Unknown,
// not Invalid.
func (r *Resolver) Resolve(ctx context.Context, domain string) models.MxLookupResult {
	key := "mx:" + domain
	if cached, ok := r.store.Get(key); ok {
		return cached.(models.MxLookupResult)
	}

	result := r.lookup(ctx, domain)
	if !result.Unknown {
		r.store.Set(key, result, r.ttl)
	}
	return result
}

func (r *Resolver) lookup(ctx context.Context, domain string) models.MxLookupResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	mxRecords, err := r.net.LookupMX(ctx, domain)
	if err != nil {
		if isTimeoutOrUnknown(err) {
			return models.MxLookupResult{Unknown: true}
		}
		return r.implicitFallback(ctx, domain, true)
	}

	if len(mxRecords) == 0 {
		return r.implicitFallback(ctx, domain, false)
	}

	sort.Slice(mxRecords, func(i, j int) bool { return mxRecords[i].Pref < mxRecords[j].Pref })

	hosts := make([]string, 0, len(mxRecords))
	for _, mx := range mxRecords {
		hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
	}

	return models.MxLookupResult{HasMx: true, Hosts: hosts}
}

// implicitFallback applies the RFC 5321 §5.1 rule: when a domain has no MX
// records, an A/AAAA record for the domain itself implicitly designates it
// as its own mail exchanger. allowUnknown controls whether a timed-out
// lookup here should be reported as Unknown (the MX query ended in a
// not-found or no-data error rather than an answer) rather than as a
// confirmed absence of MX (the MX query succeeded with zero
// records, so a failed A lookup here really does mean "no mail exchanger").
func (r *Resolver) implicitFallback(ctx context.Context, domain string, allowUnknown bool) models.MxLookupResult {
	addrs, err := r.net.LookupHost(ctx, domain)
	if err != nil || len(addrs) == 0 {
		if allowUnknown && err != nil && isTimeoutOrUnknown(err) {
			return models.MxLookupResult{Unknown: true}
		}
		return models.MxLookupResult{HasMx: false}
	}
	return models.MxLookupResult{HasMx: true, Hosts: []string{domain}, ViaImplicitMx: true}
}

func isTimeoutOrUnknown(err error) bool {
	var dnsErr *net.DNSError
	if ok := asDNSError(err, &dnsErr); ok {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	return false
}

func asDNSError(err error, target **net.DNSError) bool {
	for err != nil {
		if de, ok := err.(*net.DNSError); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}
