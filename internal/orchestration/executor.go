package orchestration

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/telemetry"
)

// Registry holds the available agents by kind.
type Registry struct {
	agents map[AgentKind]Agent
}

func NewRegistry(agents ...Agent) *Registry {
	m := make(map[AgentKind]Agent, len(agents))
	for _, a := range agents {
		m[a.Kind()] = a
	}
	return &Registry{agents: m}
}

func (r *Registry) Get(kind AgentKind) (Agent, bool) {
	a, ok := r.agents[kind]
	return a, ok
}

func (r *Registry) Kinds() []AgentKind {
	out := make([]AgentKind, 0, len(r.agents))
	for _, k := range AllAgentKinds {
		if _, ok := r.agents[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Executor runs selected agents with bulkhead isolation: one agent's
// failure, panic or timeout never disturbs the others.
type Executor struct {
	registry      *Registry
	agentTimeout  time.Duration
	phaseTimeout  time.Duration
	sharedOutputs bool
	telemetry     *telemetry.Telemetry
	logger        *log.Logger
}

func NewExecutor(registry *Registry, cfg config.ExecutionConfig, tel *telemetry.Telemetry, logger *log.Logger) *Executor {
	cfg = cfg.Normalize()
	if logger == nil {
		logger = log.New(log.Writer(), "[EXEC] ", log.LstdFlags)
	}
	return &Executor{
		registry:      registry,
		agentTimeout:  cfg.AgentTimeout,
		phaseTimeout:  cfg.PhaseTimeout,
		sharedOutputs: cfg.SharedOutputs,
		telemetry:     tel,
		logger:        logger,
	}
}

// ExecuteOne runs a single agent under its own timeout, converting panics
// and errors into records. Latency is recorded in every outcome.
func (e *Executor) ExecuteOne(ctx context.Context, kind AgentKind, userMessage string, reqCtx RequestContext) ExecutionRecord {
	agent, ok := e.registry.Get(kind)
	if !ok {
		return ExecutionRecord{Kind: kind, Status: StatusError, Err: fmt.Sprintf("no agent registered for %s", kind)}
	}

	start := time.Now()
	agentCtx, cancel := context.WithTimeout(ctx, e.agentTimeout)
	defer cancel()

	type outcome struct {
		output AgentOutput
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		out, err := agent.Execute(agentCtx, userMessage, reqCtx)
		done <- outcome{output: out, err: err}
	}()

	var rec ExecutionRecord
	select {
	case o := <-done:
		rec = ExecutionRecord{Kind: kind, Latency: time.Since(start)}
		if o.err != nil {
			rec.Status = StatusError
			rec.Err = o.err.Error()
			e.logger.Printf("agent %s failed after %s: %v", kind, rec.Latency, o.err)
		} else {
			rec.Status = StatusSuccess
			rec.Output = o.output
		}
	case <-agentCtx.Done():
		rec = ExecutionRecord{
			Kind:    kind,
			Status:  StatusTimeout,
			Err:     fmt.Sprintf("agent timed out after %s", e.agentTimeout),
			Latency: time.Since(start),
		}
		e.logger.Printf("agent %s timed out after %s", kind, rec.Latency)
	}

	if e.telemetry != nil {
		e.telemetry.RecordAgent(string(kind), string(rec.Status), rec.Latency)
	}
	return rec
}

// ExecuteParallel fans the agents out concurrently. A phase deadline bounds
// the whole group; agents still pending when it expires are recorded as
// timed out and the rest of the pipeline proceeds with what finished.
func (e *Executor) ExecuteParallel(ctx context.Context, kinds []AgentKind, userMessage string, reqCtx RequestContext) []ExecutionRecord {
	phaseCtx, cancel := context.WithTimeout(ctx, e.phaseTimeout)
	defer cancel()

	records := make([]ExecutionRecord, len(kinds))
	var (
		mu       sync.Mutex
		finished = make([]bool, len(kinds))
		wg       sync.WaitGroup
	)
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind AgentKind) {
			defer wg.Done()
			rec := e.ExecuteOne(phaseCtx, kind, userMessage, reqCtx)
			mu.Lock()
			records[i] = rec
			finished[i] = true
			mu.Unlock()
		}(i, kind)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
	case <-phaseCtx.Done():
		// Give in-flight goroutines a moment to observe cancellation and
		// record their own timeouts, then mark anything still pending.
		select {
		case <-allDone:
		case <-time.After(100 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i := range records {
		if !finished[i] {
			records[i] = ExecutionRecord{
				Kind:    kinds[i],
				Status:  StatusTimeout,
				Err:     fmt.Sprintf("execution phase deadline of %s exceeded", e.phaseTimeout),
				Latency: e.phaseTimeout,
			}
		}
	}
	out := make([]ExecutionRecord, len(records))
	copy(out, records)
	return out
}

// ExecuteSequential runs agents in order. When shared outputs are enabled,
// each successful agent's structured data is folded into the shared context
// under "<kind>_output" so later agents can build on it.
func (e *Executor) ExecuteSequential(ctx context.Context, kinds []AgentKind, userMessage string, reqCtx RequestContext) []ExecutionRecord {
	phaseCtx, cancel := context.WithTimeout(ctx, e.phaseTimeout)
	defer cancel()

	if reqCtx.Shared == nil {
		reqCtx.Shared = make(map[string]interface{})
	}

	records := make([]ExecutionRecord, 0, len(kinds))
	for _, kind := range kinds {
		if phaseCtx.Err() != nil {
			records = append(records, ExecutionRecord{
				Kind:   kind,
				Status: StatusTimeout,
				Err:    fmt.Sprintf("execution phase deadline of %s exceeded", e.phaseTimeout),
			})
			continue
		}
		rec := e.ExecuteOne(phaseCtx, kind, userMessage, reqCtx)
		if e.sharedOutputs && rec.Status == StatusSuccess && rec.Output.StructuredData != nil {
			reqCtx.Shared[string(kind)+"_output"] = rec.Output.StructuredData
		}
		records = append(records, rec)
	}
	return records
}
