package guardrails

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is an append-only record of one request. The query itself is
// never stored, only a truncated hash usable for correlation.
type AuditEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	QueryHash   string    `json:"query_hash"`
	Intent      string    `json:"intent"`
	AgentsUsed  []string  `json:"agents_used"`
	Blocked     bool      `json:"blocked"`
	BlockReason string    `json:"block_reason,omitempty"`
	PIIDetected bool      `json:"pii_detected"`
	LatencyMS   int64     `json:"latency_ms"`
}

// HashQuery returns the first 16 hex characters of the SHA-256 of the query.
func HashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:16]
}

// NewAuditEntry builds an entry for a completed (or blocked) request.
func NewAuditEntry(userID, sessionID, query string) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		SessionID: sessionID,
		QueryHash: HashQuery(query),
	}
}
