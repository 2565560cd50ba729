// Package config loads runtime tunables from the environment, the way the
// teacher's cmd/api/main.go reads REDIS_ADDR/DB_URL/PROXY_LIST at startup.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime tunable the verification service exposes.
type Config struct {
	MaxBatchSize int

	DNSCacheTTL    time.Duration
	DNSTimeout     time.Duration
	DNSConcurrency int

	SMTPTimeout   time.Duration
	SMTPHeloHost  string
	SMTPMailFrom  string

	HIBPAPIKey string

	PerIPRPM         int
	PerIPDailyCap    int
	PerIPConcurrency int

	GlobalDailyCap int

	PerAgentRPM         int
	PerAgentDailyCap    int
	PerAgentConcurrency int

	RedisAddr string
	BounceDSN string
}

// Load reads a .env file if present (ignored if absent — this mirrors
// Jaimin's confiig.go, which treats a missing .env as "use process env
// only", not a fatal error) and then builds a Config from the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		MaxBatchSize: getEnvInt("MAX_BATCH_SIZE", 500),

		DNSCacheTTL:    getEnvDuration("DNS_CACHE_TTL", 10*time.Minute),
		DNSTimeout:     getEnvDuration("DNS_TIMEOUT", 3*time.Second),
		DNSConcurrency: getEnvInt("DNS_CONCURRENCY", 20),

		SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 12*time.Second),
		SMTPHeloHost: getEnv("SMTP_HELO_HOST", "mta1.mailsentinel.com"),
		SMTPMailFrom: getEnv("SMTP_MAIL_FROM", ""),

		HIBPAPIKey: getEnv("HIBP_API_KEY", ""),

		PerIPRPM:         getEnvInt("PER_IP_RPM", 20),
		PerIPDailyCap:    getEnvInt("PER_IP_DAILY_CAP", 2000),
		PerIPConcurrency: getEnvInt("PER_IP_CONCURRENCY", 4),

		GlobalDailyCap: getEnvInt("GLOBAL_DAILY_CAP", 200000),

		PerAgentRPM:         getEnvInt("PER_AGENT_RPM", 120),
		PerAgentDailyCap:    getEnvInt("PER_AGENT_DAILY_CAP", 50000),
		PerAgentConcurrency: getEnvInt("PER_AGENT_CONCURRENCY", 16),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		BounceDSN: getEnv("BOUNCE_DB_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
