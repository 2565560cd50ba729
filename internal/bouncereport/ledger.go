// Package bouncereport records user-submitted bounce complaints as a
// SHA-256 hash of the lowercased email plus the reporting IP, never the
// address itself. Fusion treats two or more distinct reporters as a
// negative signal.
package bouncereport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger is backed by Postgres so bounce reports survive process restarts
// and are visible across replicas of the verification service.
type Ledger struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and ensures the bounce_reports table exists.
func Open(ctx context.Context, connString string) (*Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	l := &Ledger{pool: pool}
	if err := l.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS bounce_reports (
		id SERIAL PRIMARY KEY,
		email_hash TEXT NOT NULL,
		reporter_ip TEXT NOT NULL,
		reported_at TIMESTAMP DEFAULT NOW(),
		UNIQUE (email_hash, reporter_ip)
	);`
	if _, err := l.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("migration failed (bounce_reports): %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() {
	l.pool.Close()
}

// HashEmail returns the stable key used to look up and record reports,
// without ever persisting the address itself.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Report records that reporterIP flagged email as bouncing. Duplicate
// reports from the same IP for the same email are idempotent.
func (l *Ledger) Report(ctx context.Context, email, reporterIP string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO bounce_reports (email_hash, reporter_ip) VALUES ($1, $2)
		 ON CONFLICT (email_hash, reporter_ip) DO NOTHING`,
		HashEmail(email), reporterIP)
	if err != nil {
		return fmt.Errorf("recording bounce report: %w", err)
	}
	return nil
}

// UniqueReporters returns how many distinct IPs have reported email as
// bouncing in the last 30 days.
func (l *Ledger) UniqueReporters(ctx context.Context, email string) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT reporter_ip) FROM bounce_reports
		 WHERE email_hash = $1 AND reported_at > NOW() - INTERVAL '30 days'`,
		HashEmail(email)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unique reporters: %w", err)
	}
	return count, nil
}
