// Package orchestrator runs one verification batch end to end: parsing,
// per-domain lookup coalescing, bulk anomaly analysis, per-email SMTP and
// provider probing, and fusion into the final results.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"mailsentinel/internal/bouncereport"
	"mailsentinel/internal/cache"
	"mailsentinel/internal/domainsignals"
	"mailsentinel/internal/dnsresolve"
	"mailsentinel/internal/emailaddr"
	"mailsentinel/internal/fusion"
	"mailsentinel/internal/models"
	"mailsentinel/internal/pattern"
	"mailsentinel/internal/providers"
	"mailsentinel/internal/riskflags"
	"mailsentinel/internal/smtpprobe"
	"mailsentinel/internal/typofix"
)

// Cross-request TTLs for the domain-intel and DKIM-selector caches. The MX
// cache lives on dnsresolve.Resolver with its own TTL; these two are kept
// separate since DKIM selector sets churn far less often than SPF/DMARC/
// website-liveness signals.
const (
	intelCacheTTL = 10 * time.Minute
	dkimCacheTTL  = 30 * time.Minute
)

// domainEvidence bundles everything the fusion engine needs that is shared
// by every address on the same domain, looked up at most once per batch.
type domainEvidence struct {
	mx       models.MxLookupResult
	intel    models.DomainIntel
	provider string
	dkim     []string
}

// Orchestrator owns the shared collaborators for one running service: DNS
// resolution, the SMTP prober, and the provider registry. The per-request
// coalescing state lives in local variables of each VerifyBatch call.
type Orchestrator struct {
	Resolver  *dnsresolve.Resolver
	Prober    *smtpprobe.Prober
	Providers *providers.Registry
	Bounces   *bouncereport.Ledger // nil when not configured

	// Concurrency bounds simultaneous DNS/SMTP/provider work-in-flight
	// across one request.
	concurrency int

	// intelCache and dkimCache are process-wide, shared across every batch
	// and every request, unlike the per-batch evidenceCache in VerifyBatch.
	intelCache *cache.Store
	dkimCache  *cache.Store
	intelSF    singleflight.Group
	dkimSF     singleflight.Group
}

// New builds an Orchestrator. concurrency bounds per-request work-in-flight;
// bounces may be nil when no Postgres DSN is configured.
func New(resolver *dnsresolve.Resolver, prober *smtpprobe.Prober, reg *providers.Registry, bounces *bouncereport.Ledger, concurrency int) *Orchestrator {
	return &Orchestrator{
		Resolver:    resolver,
		Prober:      prober,
		Providers:   reg,
		Bounces:     bounces,
		concurrency: concurrency,
		intelCache:  cache.New(),
		dkimCache:   cache.New(),
	}
}

// StartCleanup runs the periodic eviction sweep for the process-wide
// domain-intel and DKIM caches until ctx is cancelled.
func (o *Orchestrator) StartCleanup(ctx context.Context, interval time.Duration) {
	o.intelCache.StartCleanup(ctx, interval)
	o.dkimCache.StartCleanup(ctx, interval)
}

// BatchResult is the top-level response for one verification request.
type BatchResult struct {
	CorrelationID string
	Results       []models.VerifyResult
}

// VerifyBatch runs the full pipeline over one set of raw email strings.
func (o *Orchestrator) VerifyBatch(ctx context.Context, rawEmails []string) BatchResult {
	correlationID := uuid.NewString()

	addrs := make([]emailaddr.Address, len(rawEmails))
	for i, raw := range rawEmails {
		addrs[i] = emailaddr.Parse(raw)
	}

	locals := make([]string, len(addrs))
	domains := make([]string, len(addrs))
	for i, a := range addrs {
		locals[i] = a.Local
		domains[i] = a.Domain
	}
	anomalies := pattern.BulkAnomalies(locals, domains)

	results := make([]models.VerifyResult, len(addrs))

	sem := make(chan struct{}, o.concurrency)
	var sf singleflight.Group
	var evidenceMu sync.Mutex
	evidenceCache := make(map[string]*domainEvidence)

	allowGitHub := len(addrs) == 1

	var wg sync.WaitGroup
	for i, addr := range addrs {
		i, addr := i, addr
		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if !addr.Valid {
				results[i] = fusion.Fuse(fusion.Input{Email: addr.Raw, SyntaxValid: false})
				return
			}

			ev := o.domainEvidence(ctx, addr.Domain, &sf, &evidenceMu, evidenceCache)

			results[i] = o.verifyOne(ctx, addr, ev, anomalies[i], allowGitHub)
		}()
	}
	wg.Wait()

	log.Printf("[orchestrator] batch %s: verified %d addresses", correlationID, len(results))
	return BatchResult{CorrelationID: correlationID, Results: results}
}

func (o *Orchestrator) domainEvidence(ctx context.Context, domain string, sf *singleflight.Group, mu *sync.Mutex, cache map[string]*domainEvidence) *domainEvidence {
	mu.Lock()
	if ev, ok := cache[domain]; ok {
		mu.Unlock()
		return ev
	}
	mu.Unlock()

	v, _, _ := sf.Do(domain, func() (any, error) {
		mx := o.Resolver.Resolve(ctx, domain)

		intel := o.intelFor(ctx, domain, mx)
		dkim := o.dkimFor(ctx, domain)
		intel.DkimSelectors = dkim

		provider := domainsignals.IdentifyProvider(domain, mx.Hosts)

		return &domainEvidence{mx: mx, intel: intel, provider: provider, dkim: dkim}, nil
	})

	ev := v.(*domainEvidence)
	mu.Lock()
	cache[domain] = ev
	mu.Unlock()
	return ev
}

// intelFor returns domain's SPF/DMARC/MTA-STS/BIMI/website/age/DNSBL bundle,
// serving from the process-wide cache when fresh and coalescing concurrent
// misses (across batches, not just within one) via intelSF.
func (o *Orchestrator) intelFor(ctx context.Context, domain string, mx models.MxLookupResult) models.DomainIntel {
	key := "intel:" + domain
	if cached, ok := o.intelCache.Get(key); ok {
		return cached.(models.DomainIntel)
	}

	v, _, _ := o.intelSF.Do(domain, func() (any, error) {
		if cached, ok := o.intelCache.Get(key); ok {
			return cached, nil
		}

		var intel models.DomainIntel
		var wg sync.WaitGroup
		wg.Add(6)
		go func() { defer wg.Done(); intel.HasSPF = domainsignals.CheckSPF(ctx, domain) }()
		go func() { defer wg.Done(); intel.HasDMARC = domainsignals.CheckDMARC(ctx, domain) }()
		go func() { defer wg.Done(); intel.HasMTASTS = domainsignals.CheckMTASTS(ctx, domain) }()
		go func() { defer wg.Done(); intel.HasBIMI = domainsignals.CheckBIMI(ctx, domain) }()
		go func() {
			defer wg.Done()
			alive, parked := domainsignals.CheckWebsite(ctx, domain)
			intel.WebsiteAlive = models.TriFromBool(alive)
			intel.IsParked = parked
		}()
		go func() { defer wg.Done(); intel.DomainAgeDays = domainsignals.CheckDomainAge(ctx, domain) }()
		wg.Wait()

		if mx.HasMx && len(mx.Hosts) > 0 {
			intel.Blacklisted = domainsignals.CheckDNSBL(ctx, mx.Hosts[0])
		}

		o.intelCache.Set(key, intel, intelCacheTTL)
		return intel, nil
	})

	return v.(models.DomainIntel)
}

// dkimFor returns domain's published DKIM selector list, serving from the
// process-wide cache when fresh.
func (o *Orchestrator) dkimFor(ctx context.Context, domain string) []string {
	key := "dkim:" + domain
	if cached, ok := o.dkimCache.Get(key); ok {
		return cached.([]string)
	}

	v, _, _ := o.dkimSF.Do(domain, func() (any, error) {
		if cached, ok := o.dkimCache.Get(key); ok {
			return cached, nil
		}
		selectors := domainsignals.ScanDKIMSelectors(ctx, domain)
		o.dkimCache.Set(key, selectors, dkimCacheTTL)
		return selectors, nil
	})

	return v.([]string)
}

func (o *Orchestrator) verifyOne(ctx context.Context, addr emailaddr.Address, ev *domainEvidence, bulkAnomaly bool, allowGitHubInBatch bool) models.VerifyResult {
	analysis := pattern.Analyze(addr.Local)

	mxState := models.TriFromBool(ev.mx.HasMx)
	if ev.mx.Unknown {
		mxState = models.TriUnknown
	}

	var smtpVerdict *models.SmtpVerdict
	if ev.mx.HasMx {
		smtpVerdict = o.Prober.Probe(ctx, ev.mx.Hosts, addr.Raw, addr.Domain)
	}

	checks := o.runProviderProbes(ctx, addr, ev, smtpVerdict, allowGitHubInBatch)

	uniqueReporters := 0
	if o.Bounces != nil {
		if n, err := o.Bounces.UniqueReporters(ctx, addr.Raw); err == nil {
			uniqueReporters = n
		}
	}

	canonicalDomain := typofix.Suggest(addr.Domain)
	suggestion := ""
	if canonicalDomain != "" {
		suggestion = addr.Local + "@" + canonicalDomain
	}

	result := fusion.Fuse(fusion.Input{
		Email:                 addr.Raw,
		Domain:                addr.Domain,
		SyntaxValid:           addr.Valid,
		Mx:                    mxState,
		ViaImplicitMx:         ev.mx.ViaImplicitMx,
		Smtp:                  smtpVerdict,
		Providers:             checks,
		Intel:                 ev.intel,
		IsDisposable:          riskflags.IsDisposableDomain(addr.Domain),
		IsRoleAccount:         riskflags.IsRoleAccount(addr.Local),
		LooksHuman:            analysis.LooksHuman,
		PatternFlagged:        len(analysis.Flags) > 0,
		BulkAnomaly:           bulkAnomaly,
		SuggestedEmail:        suggestion,
		MajorProviderDomain:   domainsignals.IsMajorProvider(ev.provider),
		UniqueBounceReporters: uniqueReporters,
	})

	if suggestion != "" {
		result.Notes = append(result.Notes, "Did you mean "+canonicalDomain+"?")
	}
	return result
}

// runProviderProbes applies the gating rules from the provider table:
// identity providers (Microsoft/Google/Apple) run when SMTP is inconclusive
// (error/nil) or rejected (as a veto check); the secondary signals
// (Gravatar/GitHub/PGP/HIBP) run only when SMTP is inconclusive. GitHub is
// skipped on multi-address batches and HIBP without a configured key.
func (o *Orchestrator) runProviderProbes(ctx context.Context, addr emailaddr.Address, ev *domainEvidence, smtp *models.SmtpVerdict, allowGitHubInBatch bool) models.ProviderChecks {
	inconclusive := smtp == nil || smtp.Verdict == models.SmtpError
	rejected := smtp != nil && smtp.Verdict == models.SmtpRejected

	var checks models.ProviderChecks
	var wg sync.WaitGroup

	runIdentity := inconclusive || rejected
	if runIdentity {
		switch ev.provider {
		case "microsoft":
			wg.Add(1)
			go func() { defer wg.Done(); checks.Microsoft = o.Providers.CheckMicrosoft(ctx, addr.Raw) }()
		case "google":
			wg.Add(1)
			go func() { defer wg.Done(); checks.Google = o.Providers.CheckGoogle(ctx, addr.Raw, addr.Domain) }()
		case "apple":
			wg.Add(1)
			go func() { defer wg.Done(); checks.Apple = o.Providers.CheckApple(ctx, addr.Raw) }()
		}
	}

	if inconclusive {
		wg.Add(1)
		go func() { defer wg.Done(); checks.Gravatar = o.Providers.CheckGravatar(ctx, addr.Raw) }()

		if allowGitHubInBatch {
			wg.Add(1)
			go func() { defer wg.Done(); checks.GitHub = o.Providers.CheckGitHub(ctx, addr.Raw) }()
		}

		wg.Add(1)
		go func() { defer wg.Done(); checks.PGP = o.Providers.CheckPGP(ctx, addr.Raw) }()

		if o.Providers.HasHIBPKey() {
			wg.Add(1)
			go func() { defer wg.Done(); checks.HIBP = o.Providers.CheckHIBP(ctx, addr.Raw) }()
		}
	}

	wg.Wait()
	return checks
}
