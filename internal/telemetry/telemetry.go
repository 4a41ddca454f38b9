package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Name:      "requests_total",
		Help:      "Chat requests by outcome.",
	}, []string{"outcome"}) // completed | blocked | error

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "advisor",
		Name:      "request_duration_seconds",
		Help:      "End to end request latency.",
		Buckets:   prometheus.DefBuckets,
	})

	agentExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Name:      "agent_executions_total",
		Help:      "Agent executions by kind and status.",
	}, []string{"agent", "status"})

	agentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "advisor",
		Name:      "agent_duration_seconds",
		Help:      "Per agent execution latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"agent"})
)

// Telemetry tracks in-process counters and mirrors them to prometheus.
type Telemetry struct {
	mu sync.Mutex

	logger *log.Logger

	requests       int64
	blocked        int64
	errors         int64
	totalLatency   time.Duration
	agentCounts    map[string]int64
	agentFailures  map[string]int64
	piiDetections  int64
	rateLimitHits  int64
	lastRequestEnd time.Time
}

func New(logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags)
	}
	return &Telemetry{
		logger:        logger,
		agentCounts:   make(map[string]int64),
		agentFailures: make(map[string]int64),
	}
}

// RecordRequest tracks one finished request. outcome is completed, blocked
// or error.
func (t *Telemetry) RecordRequest(outcome string, latency time.Duration) {
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDuration.Observe(latency.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests++
	t.totalLatency += latency
	t.lastRequestEnd = time.Now()
	switch outcome {
	case "blocked":
		t.blocked++
	case "error":
		t.errors++
	}
}

// RecordAgent tracks one agent execution.
func (t *Telemetry) RecordAgent(kind, status string, latency time.Duration) {
	agentExecutions.WithLabelValues(kind, status).Inc()
	agentDuration.WithLabelValues(kind).Observe(latency.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.agentCounts[kind]++
	if status != "success" {
		t.agentFailures[kind]++
	}
}

func (t *Telemetry) RecordPIIDetection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.piiDetections++
}

func (t *Telemetry) RecordRateLimitHit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rateLimitHits++
}

// Snapshot returns current counters for the stats endpoint.
func (t *Telemetry) Snapshot() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	avgLatency := time.Duration(0)
	if t.requests > 0 {
		avgLatency = t.totalLatency / time.Duration(t.requests)
	}
	agents := make(map[string]interface{}, len(t.agentCounts))
	for kind, n := range t.agentCounts {
		agents[kind] = map[string]int64{"executions": n, "failures": t.agentFailures[kind]}
	}
	return map[string]interface{}{
		"requests":        t.requests,
		"blocked":         t.blocked,
		"errors":          t.errors,
		"avg_latency_ms":  avgLatency.Milliseconds(),
		"agents":          agents,
		"pii_detections":  t.piiDetections,
		"rate_limit_hits": t.rateLimitHits,
	}
}

// LogSummary writes a one-line digest, called periodically by the server.
func (t *Telemetry) LogSummary() {
	snap := t.Snapshot()
	t.logger.Printf("requests=%v blocked=%v errors=%v avg_latency_ms=%v",
		snap["requests"], snap["blocked"], snap["errors"], snap["avg_latency_ms"])
}
