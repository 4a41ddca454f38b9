package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"github.com/mohammad-safakhou/advisor/internal/guardrails"
)

// AuditStore persists audit entries. Writes are append-only.
type AuditStore interface {
	Append(ctx context.Context, entry guardrails.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]guardrails.AuditEntry, error)
	Close() error
}

// MemoryAuditStore keeps entries in memory for dev and tests.
type MemoryAuditStore struct {
	mu      sync.Mutex
	entries []guardrails.AuditEntry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Append(_ context.Context, entry guardrails.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryAuditStore) Recent(_ context.Context, limit int) ([]guardrails.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]guardrails.AuditEntry, limit)
	copy(out, s.entries[len(s.entries)-limit:])
	return out, nil
}

func (s *MemoryAuditStore) Close() error { return nil }

// PostgresAuditStore writes entries to a single append-only table created at
// startup.
type PostgresAuditStore struct {
	db *sql.DB
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	user_id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	query_hash TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	agents_used TEXT[] NOT NULL DEFAULT '{}',
	blocked BOOLEAN NOT NULL DEFAULT FALSE,
	block_reason TEXT NOT NULL DEFAULT '',
	pii_detected BOOLEAN NOT NULL DEFAULT FALSE,
	latency_ms BIGINT NOT NULL DEFAULT 0
)`

func NewPostgresAuditStore(ctx context.Context, dsn string) (*PostgresAuditStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging audit database: %w", err)
	}
	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit table: %w", err)
	}
	return &PostgresAuditStore{db: db}, nil
}

func (s *PostgresAuditStore) Append(ctx context.Context, e guardrails.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, ts, user_id, session_id, query_hash, intent, agents_used, blocked, block_reason, pii_detected, latency_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Timestamp, e.UserID, e.SessionID, e.QueryHash, e.Intent,
		pq.Array(e.AgentsUsed), e.Blocked, e.BlockReason, e.PIIDetected, e.LatencyMS)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (s *PostgresAuditStore) Recent(ctx context.Context, limit int) ([]guardrails.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, user_id, session_id, query_hash, intent, agents_used, blocked, block_reason, pii_detected, latency_ms
		 FROM audit_log ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var out []guardrails.AuditEntry
	for rows.Next() {
		var e guardrails.AuditEntry
		var agents pq.StringArray
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.SessionID, &e.QueryHash,
			&e.Intent, &agents, &e.Blocked, &e.BlockReason, &e.PIIDetected, &e.LatencyMS); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.AgentsUsed = agents
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresAuditStore) Close() error { return s.db.Close() }
