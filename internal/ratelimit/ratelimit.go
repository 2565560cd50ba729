// Package ratelimit implements the four admission gates guarding the
// verification endpoint: per-identity requests-per-minute, batch size,
// per-identity and global daily email caps, and a per-identity concurrency
// semaphore. Gates are checked in order and the first failure short-circuits
// with a reason and, where meaningful, a retry-after duration.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Reason identifies which gate refused a request.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonRPM             Reason = "rpm_exceeded"
	ReasonBatchTooLarge   Reason = "batch_too_large"
	ReasonDailyCap        Reason = "daily_cap_exhausted"
	ReasonGlobalCeiling   Reason = "global_ceiling_reached"
	ReasonConcurrency     Reason = "concurrency_limit"
)

// Decision is the result of Admit: whether the request may proceed, how
// many addresses of the requested batch were actually reserved (daily caps
// silently truncate rather than refuse outright), and a release function
// that must be called once the request finishes.
type Decision struct {
	Allowed    bool
	Reason     Reason
	RetryAfter time.Duration
	Reserved   int
	Release    func()
}

type identityState struct {
	limiter    *rate.Limiter
	violations int
	windowEnds time.Time

	dailyUsed    int
	dailyResetAt time.Time

	sem chan struct{}
}

// Limits configures one identity class (per-IP or per-agent).
type Limits struct {
	RPM            int
	DailyCap       int
	MaxConcurrency int
}

// Gate is the admission controller for one identity class plus a shared
// global daily ceiling.
type Gate struct {
	mu    sync.Mutex
	limit Limits

	identities map[string]*identityState

	globalMu       sync.Mutex
	globalDailyCap int
	globalUsed     int
	globalResetAt  time.Time

	maxBatchSize int

	redisStore *RedisStore
}

// UseRedisStore makes the global daily ceiling shared across every process
// of the service instead of tracked per-process. Pass nil to go back to the
// in-process counter (the default, correct for a single instance).
func (g *Gate) UseRedisStore(store *RedisStore) {
	g.redisStore = store
}

// New builds a Gate. globalDailyCap of 0 disables the global ceiling.
func New(limit Limits, maxBatchSize, globalDailyCap int) *Gate {
	return &Gate{
		limit:          limit,
		identities:     make(map[string]*identityState),
		maxBatchSize:   maxBatchSize,
		globalDailyCap: globalDailyCap,
		globalResetAt:  nextMidnightUTC(time.Now()),
	}
}

func nextMidnightUTC(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next
}

func (g *Gate) stateFor(identity string, now time.Time) *identityState {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.identities[identity]
	if !ok {
		st = &identityState{
			limiter:      rate.NewLimiter(rate.Limit(float64(g.limit.RPM)/60.0), g.limit.RPM),
			windowEnds:   now.Add(time.Minute),
			dailyResetAt: nextMidnightUTC(now),
			sem:          make(chan struct{}, g.limit.MaxConcurrency),
		}
		g.identities[identity] = st
	}
	if now.After(st.windowEnds) {
		st.windowEnds = now.Add(time.Minute)
	}
	if now.After(st.dailyResetAt) {
		st.dailyUsed = 0
		st.violations = 0
		st.dailyResetAt = nextMidnightUTC(now)
	}
	return st
}

// Usage reports today's consumption for identity, for the agent-usage
// endpoint.
func (g *Gate) Usage(identity string) (used, cap int, resetAt time.Time) {
	now := time.Now()
	st := g.stateFor(identity, now)
	g.mu.Lock()
	defer g.mu.Unlock()
	return st.dailyUsed, g.limit.DailyCap, st.dailyResetAt
}

// Admit runs all four gates in order for one request of requestedCount
// addresses. Admission errors (RPM/batch/daily/global/concurrency) are the
// only failures that prevent per-email results entirely.
func (g *Gate) Admit(ctx context.Context, identity string, requestedCount int) Decision {
	now := time.Now()

	st := g.stateFor(identity, now)

	g.mu.Lock()
	if !st.limiter.AllowN(now, 1) {
		st.violations++
		backoff := time.Duration(60*(1<<uint(st.violations-1))) * time.Second
		if backoff > time.Hour {
			backoff = time.Hour
		}
		g.mu.Unlock()
		return Decision{Reason: ReasonRPM, RetryAfter: backoff}
	}
	g.mu.Unlock()

	if requestedCount > g.maxBatchSize {
		return Decision{Reason: ReasonBatchTooLarge}
	}

	g.mu.Lock()
	remaining := g.limit.DailyCap - st.dailyUsed
	if remaining <= 0 {
		retryAfter := st.dailyResetAt.Sub(now)
		g.mu.Unlock()
		return Decision{Reason: ReasonDailyCap, RetryAfter: retryAfter}
	}
	reserved := requestedCount
	if reserved > remaining {
		reserved = remaining
	}
	st.dailyUsed += reserved
	g.mu.Unlock()

	if g.globalDailyCap > 0 {
		if g.redisStore != nil {
			granted, err := g.redisStore.ReserveGlobalDaily(ctx, g.globalDailyCap, reserved)
			if err != nil || granted <= 0 {
				g.refundDaily(st, reserved)
				return Decision{Reason: ReasonGlobalCeiling, RetryAfter: time.Until(nextMidnightUTC(time.Now()))}
			}
			reserved = granted
		} else {
			g.globalMu.Lock()
			if time.Now().After(g.globalResetAt) {
				g.globalUsed = 0
				g.globalResetAt = nextMidnightUTC(time.Now())
			}
			globalRemaining := g.globalDailyCap - g.globalUsed
			if globalRemaining <= 0 {
				retryAfter := g.globalResetAt.Sub(time.Now())
				g.globalMu.Unlock()
				g.refundDaily(st, reserved)
				return Decision{Reason: ReasonGlobalCeiling, RetryAfter: retryAfter}
			}
			if reserved > globalRemaining {
				reserved = globalRemaining
			}
			g.globalUsed += reserved
			g.globalMu.Unlock()
		}
	}

	select {
	case st.sem <- struct{}{}:
	default:
		g.refundDaily(st, reserved)
		return Decision{Reason: ReasonConcurrency}
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		<-st.sem
	}

	return Decision{Allowed: true, Reserved: reserved, Release: release}
}

func (g *Gate) refundDaily(st *identityState, n int) {
	g.mu.Lock()
	st.dailyUsed -= n
	if st.dailyUsed < 0 {
		st.dailyUsed = 0
	}
	g.mu.Unlock()
}

// Identity resolves the admission-control key for an incoming request:
// the authenticated agent UID when present, otherwise the first
// X-Forwarded-For hop, then X-Real-IP, then "unknown".
func Identity(agentUID, xForwardedFor, xRealIP string) string {
	if agentUID != "" {
		return agentUID
	}
	if xForwardedFor != "" {
		hop, _, _ := strings.Cut(xForwardedFor, ",")
		return strings.TrimSpace(hop)
	}
	if xRealIP != "" {
		return strings.TrimSpace(xRealIP)
	}
	return "unknown"
}
