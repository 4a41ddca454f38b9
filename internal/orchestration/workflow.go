package orchestration

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/conversation"
	"github.com/mohammad-safakhou/advisor/internal/guardrails"
	"github.com/mohammad-safakhou/advisor/internal/store"
	"github.com/mohammad-safakhou/advisor/internal/telemetry"
)

// Stage names the workflow's pipeline phases, in order.
type Stage string

const (
	StageInput     Stage = "input"
	StageIntent    Stage = "intent_detection"
	StageRouting   Stage = "routing"
	StageExecution Stage = "execution"
	StageSynthesis Stage = "synthesis"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

const blockedMessage = "Your question doesn't meet our safety requirements. Please try again."

// Request is one chat turn entering the workflow.
type Request struct {
	Message   string
	SessionID string
	UserID    string
	History   []conversation.Message
	Summary   *conversation.Summary
	Payload   *Payload
}

// Workflow wires the full pipeline: guardrails, compaction, intent,
// routing, execution, synthesis, audit.
type Workflow struct {
	validator   *guardrails.InputValidator
	financial   *guardrails.FinancialValidator
	rateLimiter *guardrails.RateLimiter
	compactor   *conversation.Compactor
	router      Router
	executor    *Executor
	synthesizer *Synthesizer
	audit       store.AuditStore
	telemetry   *telemetry.Telemetry
	mode        string
	logger      *log.Logger
}

func NewWorkflow(
	cfg *config.Config,
	router Router,
	executor *Executor,
	audit store.AuditStore,
	tel *telemetry.Telemetry,
	logger *log.Logger,
) *Workflow {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Workflow{
		validator:   guardrails.NewInputValidator(cfg.Guardrails, logger),
		financial:   guardrails.NewFinancialValidator(cfg.Guardrails),
		rateLimiter: guardrails.NewRateLimiter(cfg.Guardrails),
		compactor:   conversation.NewCompactor(cfg.Conversation),
		router:      router,
		executor:    executor,
		synthesizer: NewSynthesizer(),
		audit:       audit,
		telemetry:   tel,
		mode:        cfg.Execution.Normalize().Mode,
		logger:      logger,
	}
}

// Run executes one chat turn end to end and always returns a well-formed
// Result, whatever fails inside.
func (w *Workflow) Run(ctx context.Context, req Request) (result Result) {
	start := time.Now()
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.UserID == "" {
		req.UserID = req.SessionID
	}

	entry := guardrails.NewAuditEntry(req.UserID, req.SessionID, req.Message)

	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("workflow panic recovered: %v", r)
			result = w.errorResult(req, start, "An internal error occurred while processing your request. Please try again.")
			entry.Blocked = false
			entry.BlockReason = ""
		}
		entry.LatencyMS = time.Since(start).Milliseconds()
		entry.Intent = string(result.Intent)
		entry.AgentsUsed = result.AgentsUsed
		if w.audit != nil {
			if err := w.audit.Append(context.WithoutCancel(ctx), entry); err != nil {
				w.logger.Printf("audit append failed: %v", err)
			}
		}
		if w.telemetry != nil {
			outcome := "completed"
			if entry.Blocked {
				outcome = "blocked"
			}
			w.telemetry.RecordRequest(outcome, time.Since(start))
		}
	}()

	// Stage: input guardrails.
	w.logger.Printf("[%s] session=%s", StageInput, req.SessionID)

	if err := w.rateLimiter.Allow(req.UserID); err != nil {
		w.logger.Printf("[%s] rate limited: %v", StageInput, err)
		if w.telemetry != nil {
			w.telemetry.RecordRateLimitHit()
		}
		entry.Blocked = true
		entry.BlockReason = err.Error()
		return w.blockedResult(req, start, err.Error())
	}

	if err := w.validator.ValidateQuery(req.Message); err != nil {
		w.logger.Printf("[%s] validation failed: %v", StageInput, err)
		entry.Blocked = true
		entry.BlockReason = err.Error()
		return w.blockedResult(req, start, blockedMessage)
	}

	if categories := guardrails.ScanPII(req.Message); len(categories) > 0 {
		w.logger.Printf("[%s] personal information detected: %v", StageInput, categories)
		if w.telemetry != nil {
			w.telemetry.RecordPIIDetection()
		}
		entry.Blocked = true
		entry.BlockReason = "pii_detected"
		entry.PIIDetected = true
		return w.blockedResult(req, start, guardrails.PIIWarning(categories))
	}

	// Structured payload gets the financial sanity checks up front. Errors
	// block; warnings travel with the answer.
	var warnings []string
	if req.Payload != nil {
		validation := w.validatePayload(req.Payload)
		if !validation.OK() {
			w.logger.Printf("[%s] financial validation failed: %v", StageInput, validation.Errors)
			entry.Blocked = true
			entry.BlockReason = "financial_validation"
			return w.blockedResult(req, start, strings.Join(validation.Errors, " "))
		}
		warnings = validation.Warnings
	}

	// Compaction: bound the history before it flows to agents.
	history := append(req.History, conversation.Message{Role: "user", Content: req.Message})
	history, summary := w.compactor.Trim(history)
	if summary == nil {
		summary = req.Summary
	}

	// Stage: intent detection.
	intent := ClassifyIntent(req.Message)
	if req.Payload != nil {
		intent.Tickers = mergeTickers(intent.Tickers, req.Payload.Tickers)
	}
	for _, amount := range intent.Amounts {
		w.validator.FlagLargeAmount(amount)
	}
	w.logger.Printf("[%s] primary=%s confidence=%.2f", StageIntent, intent.Primary, intent.Confidence)

	// Stage: routing.
	decision := w.router.Route(ctx, req.Message, intent)
	w.logger.Printf("[%s] agents=%v", StageRouting, decision.Agents)

	// Stage: execution.
	shared := make(map[string]interface{})
	if req.Payload != nil {
		if len(req.Payload.Holdings) > 0 {
			shared["holdings"] = req.Payload.Holdings
		}
		if req.Payload.Goal != nil {
			shared["goal_params"] = req.Payload.Goal
		}
	}
	reqCtx := RequestContext{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Intent:    intent,
		History:   history,
		Summary:   summary,
		Shared:    shared,
	}
	var records []ExecutionRecord
	if w.mode == "sequential" {
		records = w.executor.ExecuteSequential(ctx, decision.Agents, req.Message, reqCtx)
	} else {
		records = w.executor.ExecuteParallel(ctx, decision.Agents, req.Message, reqCtx)
	}

	// Stage: synthesis.
	synthesis := w.synthesizer.Synthesize(records, req.Message)
	w.logger.Printf("[%s] sections=%d citations=%d redacted=%v",
		StageSynthesis, len(synthesis.Structure), len(synthesis.Citations), synthesis.Redacted)

	confidence := intent.Confidence
	if synthesis.Redacted || synthesis.AllFailed {
		confidence = 0
	}

	agentsUsed := make([]string, 0, len(records))
	executionTimes := make(map[string]int64, len(records))
	for _, rec := range records {
		agentsUsed = append(agentsUsed, string(rec.Kind))
		executionTimes[string(rec.Kind)] = rec.Latency.Milliseconds()
	}

	result = Result{
		Response:       synthesis.Response,
		Citations:      synthesis.Citations,
		Confidence:     confidence,
		Intent:         intent.Primary,
		AgentsUsed:     agentsUsed,
		ExecutionTimes: executionTimes,
		TotalTimeMS:    time.Since(start).Milliseconds(),
		SessionID:      req.SessionID,
		Metadata: map[string]interface{}{
			"routing_reason":  decision.Reason,
			"key_insights":    synthesis.KeyInsights,
			"recommendations": synthesis.Recommendations,
			"stage":           string(StageComplete),
		},
	}
	if len(warnings) > 0 {
		result.Metadata["warnings"] = warnings
	}
	w.logger.Printf("[%s] total=%dms", StageComplete, result.TotalTimeMS)
	return result
}

// validatePayload runs the financial sanity checks on whatever structured
// inputs the request carries.
func (w *Workflow) validatePayload(p *Payload) guardrails.FinancialValidation {
	var out guardrails.FinancialValidation
	if len(p.Holdings) > 0 {
		symbols := make([]string, 0, len(p.Holdings))
		for sym := range p.Holdings {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		holdings := make([]guardrails.Holding, 0, len(symbols))
		for _, sym := range symbols {
			holdings = append(holdings, guardrails.Holding{Symbol: sym, Value: p.Holdings[sym]})
		}
		v := w.financial.ValidatePortfolio(holdings)
		out.Errors = append(out.Errors, v.Errors...)
		out.Warnings = append(out.Warnings, v.Warnings...)
	}
	if p.Goal != nil {
		v := w.financial.ValidateGoal(p.Goal.TargetAmount, p.Goal.CurrentValue, p.Goal.MonthlyContribution, p.Goal.TimeHorizonYears)
		out.Errors = append(out.Errors, v.Errors...)
		out.Warnings = append(out.Warnings, v.Warnings...)
	}
	return out
}

func mergeTickers(extracted, supplied []string) []string {
	seen := make(map[string]bool, len(extracted))
	out := extracted
	for _, t := range extracted {
		seen[t] = true
	}
	for _, t := range supplied {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (w *Workflow) blockedResult(req Request, start time.Time, message string) Result {
	return Result{
		Response:       message,
		Citations:      []Citation{},
		Confidence:     0,
		Intent:         IntentUnknown,
		AgentsUsed:     []string{},
		ExecutionTimes: map[string]int64{},
		TotalTimeMS:    time.Since(start).Milliseconds(),
		SessionID:      req.SessionID,
		Metadata:       map[string]interface{}{"stage": string(StageInput), "blocked": true},
	}
}

func (w *Workflow) errorResult(req Request, start time.Time, message string) Result {
	return Result{
		Response:       message,
		Citations:      []Citation{},
		Confidence:     0,
		Intent:         IntentUnknown,
		AgentsUsed:     []string{},
		ExecutionTimes: map[string]int64{},
		TotalTimeMS:    time.Since(start).Milliseconds(),
		SessionID:      req.SessionID,
		Metadata:       map[string]interface{}{"stage": string(StageError)},
	}
}
