package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailsentinel/internal/bouncereport"
	"mailsentinel/internal/config"
	"mailsentinel/internal/dnsresolve"
	"mailsentinel/internal/orchestrator"
	"mailsentinel/internal/providers"
	"mailsentinel/internal/ratelimit"
	"mailsentinel/internal/serverbehavior"
	"mailsentinel/internal/smtpprobe"
)

func main() {
	cfg := config.Load()

	resolver := dnsresolve.New(cfg.DNSCacheTTL, cfg.DNSTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resolver.StartCleanup(ctx, 5*time.Minute)

	behavior := serverbehavior.New()
	go runEvictionLoop(ctx, behavior, time.Hour)

	prober := smtpprobe.New(cfg.SMTPHeloHost, cfg.SMTPMailFrom, cfg.SMTPTimeout, cfg.DNSConcurrency, behavior)
	registry := providers.NewRegistry(cfg.HIBPAPIKey)

	var ledger *bouncereport.Ledger
	if cfg.BounceDSN != "" {
		var err error
		ledger, err = bouncereport.Open(ctx, cfg.BounceDSN)
		if err != nil {
			log.Printf("bounce ledger disabled, could not connect to database: %v", err)
		} else {
			defer ledger.Close()
		}
	}

	orch := orchestrator.New(resolver, prober, registry, ledger, cfg.DNSConcurrency)
	orch.StartCleanup(ctx, 5*time.Minute)

	ipGate := ratelimit.New(ratelimit.Limits{
		RPM:            cfg.PerIPRPM,
		DailyCap:       cfg.PerIPDailyCap,
		MaxConcurrency: cfg.PerIPConcurrency,
	}, cfg.MaxBatchSize, cfg.GlobalDailyCap)

	if cfg.RedisAddr != "" {
		if store, err := ratelimit.NewRedisStore(cfg.RedisAddr); err != nil {
			log.Printf("global daily ceiling staying per-process, could not reach redis: %v", err)
		} else {
			defer store.Close()
			ipGate.UseRedisStore(store)
		}
	}

	agentGate := ratelimit.New(ratelimit.Limits{
		RPM:            cfg.PerAgentRPM,
		DailyCap:       cfg.PerAgentDailyCap,
		MaxConcurrency: cfg.PerAgentConcurrency,
	}, cfg.MaxBatchSize, 0)

	bounceGate := ratelimit.New(ratelimit.Limits{
		RPM:            5,
		DailyCap:       1 << 30,
		MaxConcurrency: 1 << 16,
	}, 1, 0)

	srv := &server{
		cfg:        cfg,
		orch:       orch,
		ipGate:     ipGate,
		agentGate:  agentGate,
		bounceGate: bounceGate,
		ledger:     ledger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/verify", enableCORS(srv.verifyHandler))
	mux.HandleFunc("/api/bounce", enableCORS(srv.bounceHandler))
	mux.HandleFunc("/api/agent/usage", enableCORS(srv.usageHandler))

	httpServer := &http.Server{
		Addr:         ":8080",
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		fmt.Println("mailsentinel listening on :8080")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutdown signal received, draining in-flight requests")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server shut down cleanly")
}

func runEvictionLoop(ctx context.Context, behavior *serverbehavior.Tracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			behavior.Evict()
		case <-ctx.Done():
			return
		}
	}
}

// enableCORS sets permissive CORS headers for frontend access. Restrict
// Access-Control-Allow-Origin to a specific origin in production.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Signature, Signature-Input, Signature-Agent")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}
