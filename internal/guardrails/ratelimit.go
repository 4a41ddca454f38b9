package guardrails

import (
	"fmt"
	"sync"
	"time"

	"github.com/mohammad-safakhou/advisor/config"
)

// RateLimiter enforces per-user rolling windows over a minute, an hour and a
// day. All state is in-process; every check is O(recent requests).
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	perMin   int
	perHour  int
	perDay   int
	now      func() time.Time
}

func NewRateLimiter(cfg config.GuardrailsConfig) *RateLimiter {
	cfg = cfg.Normalize()
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		perMin:   cfg.QueriesPerMinute,
		perHour:  cfg.QueriesPerHour,
		perDay:   cfg.QueriesPerDay,
		now:      time.Now,
	}
}

// Allow records a request for userID and reports whether it is within all
// three windows. The returned error names the tightest violated window.
func (r *RateLimiter) Allow(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-24 * time.Hour)
	kept := r.requests[userID][:0]
	for _, t := range r.requests[userID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.requests[userID] = kept

	var lastMin, lastHour int
	minCut := now.Add(-time.Minute)
	hourCut := now.Add(-time.Hour)
	for _, t := range kept {
		if t.After(minCut) {
			lastMin++
		}
		if t.After(hourCut) {
			lastHour++
		}
	}

	switch {
	case lastMin >= r.perMin:
		return fmt.Errorf("rate limit exceeded: maximum %d requests per minute", r.perMin)
	case lastHour >= r.perHour:
		return fmt.Errorf("rate limit exceeded: maximum %d requests per hour", r.perHour)
	case len(kept) >= r.perDay:
		return fmt.Errorf("rate limit exceeded: maximum %d requests per day", r.perDay)
	}

	r.requests[userID] = append(kept, now)
	return nil
}
