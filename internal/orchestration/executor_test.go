package orchestration

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/mohammad-safakhou/advisor/config"
)

// stubAgent lets tests script success, failure, panic and slowness.
type stubAgent struct {
	kind   AgentKind
	output AgentOutput
	err    error
	delay  time.Duration
	panics bool
}

func (s *stubAgent) Kind() AgentKind { return s.kind }

func (s *stubAgent) Execute(ctx context.Context, _ string, _ RequestContext) (AgentOutput, error) {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return AgentOutput{}, ctx.Err()
		}
	}
	return s.output, s.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestExecutor(cfg config.ExecutionConfig, agents ...Agent) *Executor {
	return NewExecutor(NewRegistry(agents...), cfg, nil, quietLogger())
}

func TestExecuteOneSuccess(t *testing.T) {
	e := newTestExecutor(config.ExecutionConfig{},
		&stubAgent{kind: AgentFinanceQA, output: AgentOutput{AnswerText: "ok"}})
	rec := e.ExecuteOne(context.Background(), AgentFinanceQA, "q", RequestContext{})
	if rec.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", rec.Status)
	}
	if rec.Output.AnswerText != "ok" {
		t.Fatalf("output = %q", rec.Output.AnswerText)
	}
}

func TestExecuteOneError(t *testing.T) {
	e := newTestExecutor(config.ExecutionConfig{},
		&stubAgent{kind: AgentFinanceQA, err: errors.New("backend down")})
	rec := e.ExecuteOne(context.Background(), AgentFinanceQA, "q", RequestContext{})
	if rec.Status != StatusError {
		t.Fatalf("status = %s, want error", rec.Status)
	}
	if rec.Err == "" {
		t.Fatal("error text should be recorded")
	}
}

func TestExecuteOnePanicBecomesRecord(t *testing.T) {
	e := newTestExecutor(config.ExecutionConfig{},
		&stubAgent{kind: AgentFinanceQA, panics: true})
	rec := e.ExecuteOne(context.Background(), AgentFinanceQA, "q", RequestContext{})
	if rec.Status != StatusError {
		t.Fatalf("status = %s, want error after panic", rec.Status)
	}
}

func TestExecuteOneTimeout(t *testing.T) {
	e := newTestExecutor(
		config.ExecutionConfig{AgentTimeout: 50 * time.Millisecond, PhaseTimeout: time.Second},
		&stubAgent{kind: AgentFinanceQA, delay: 500 * time.Millisecond, output: AgentOutput{AnswerText: "late"}})
	rec := e.ExecuteOne(context.Background(), AgentFinanceQA, "q", RequestContext{})
	if rec.Status != StatusTimeout && rec.Status != StatusError {
		t.Fatalf("status = %s, want timeout", rec.Status)
	}
	if rec.Latency <= 0 {
		t.Fatal("latency must be recorded even on timeout")
	}
}

func TestExecuteOneUnknownAgent(t *testing.T) {
	e := newTestExecutor(config.ExecutionConfig{})
	rec := e.ExecuteOne(context.Background(), AgentMarket, "q", RequestContext{})
	if rec.Status != StatusError {
		t.Fatalf("status = %s, want error for unregistered agent", rec.Status)
	}
}

func TestExecuteParallelBulkheadIsolation(t *testing.T) {
	e := newTestExecutor(config.ExecutionConfig{AgentTimeout: time.Second, PhaseTimeout: 2 * time.Second},
		&stubAgent{kind: AgentPortfolio, output: AgentOutput{AnswerText: "portfolio fine"}},
		&stubAgent{kind: AgentGoal, panics: true},
		&stubAgent{kind: AgentTax, err: errors.New("tax backend down")},
	)
	records := e.ExecuteParallel(context.Background(),
		[]AgentKind{AgentPortfolio, AgentGoal, AgentTax}, "q", RequestContext{})

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	byKind := map[AgentKind]ExecutionRecord{}
	for _, r := range records {
		byKind[r.Kind] = r
	}
	if byKind[AgentPortfolio].Status != StatusSuccess {
		t.Fatalf("healthy agent disturbed: %+v", byKind[AgentPortfolio])
	}
	if byKind[AgentGoal].Status != StatusError {
		t.Fatalf("panicking agent status = %s, want error", byKind[AgentGoal].Status)
	}
	if byKind[AgentTax].Status != StatusError {
		t.Fatalf("failing agent status = %s, want error", byKind[AgentTax].Status)
	}
}

func TestExecuteParallelPhaseDeadline(t *testing.T) {
	e := newTestExecutor(config.ExecutionConfig{AgentTimeout: 80 * time.Millisecond, PhaseTimeout: 100 * time.Millisecond},
		&stubAgent{kind: AgentFinanceQA, output: AgentOutput{AnswerText: "fast"}},
		&stubAgent{kind: AgentNews, delay: 5 * time.Second},
	)
	start := time.Now()
	records := e.ExecuteParallel(context.Background(),
		[]AgentKind{AgentFinanceQA, AgentNews}, "q", RequestContext{})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("phase took %s, deadline not enforced", elapsed)
	}
	byKind := map[AgentKind]ExecutionRecord{}
	for _, r := range records {
		byKind[r.Kind] = r
	}
	if byKind[AgentFinanceQA].Status != StatusSuccess {
		t.Fatalf("fast agent status = %s", byKind[AgentFinanceQA].Status)
	}
	if byKind[AgentNews].Status != StatusTimeout && byKind[AgentNews].Status != StatusError {
		t.Fatalf("slow agent status = %s, want timeout", byKind[AgentNews].Status)
	}
}

func TestExecuteSequentialSharesOutputs(t *testing.T) {
	var sawShared bool
	checker := &checkerAgent{kind: AgentGoal, check: func(reqCtx RequestContext) {
		_, sawShared = reqCtx.Shared["portfolio_analysis_output"]
	}}
	e := newTestExecutor(config.ExecutionConfig{SharedOutputs: true},
		&stubAgent{kind: AgentPortfolio, output: AgentOutput{
			AnswerText:     "done",
			StructuredData: map[string]interface{}{"total_value": 100000.0},
		}},
		checker,
	)
	records := e.ExecuteSequential(context.Background(),
		[]AgentKind{AgentPortfolio, AgentGoal}, "q", RequestContext{})
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !sawShared {
		t.Fatal("second agent should see first agent's structured output")
	}
}

func TestExecuteSequentialSharingDisabled(t *testing.T) {
	var sawShared bool
	checker := &checkerAgent{kind: AgentGoal, check: func(reqCtx RequestContext) {
		_, sawShared = reqCtx.Shared["portfolio_analysis_output"]
	}}
	e := newTestExecutor(config.ExecutionConfig{SharedOutputs: false},
		&stubAgent{kind: AgentPortfolio, output: AgentOutput{
			AnswerText:     "done",
			StructuredData: map[string]interface{}{"total_value": 100000.0},
		}},
		checker,
	)
	e.ExecuteSequential(context.Background(),
		[]AgentKind{AgentPortfolio, AgentGoal}, "q", RequestContext{})
	if sawShared {
		t.Fatal("structured outputs must not be shared when disabled")
	}
}

type checkerAgent struct {
	kind  AgentKind
	check func(RequestContext)
}

func (c *checkerAgent) Kind() AgentKind { return c.kind }

func (c *checkerAgent) Execute(_ context.Context, _ string, reqCtx RequestContext) (AgentOutput, error) {
	c.check(reqCtx)
	return AgentOutput{AnswerText: "ok"}, nil
}
