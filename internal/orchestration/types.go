package orchestration

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/advisor/internal/conversation"
)

// Intent classifies what the user is asking for.
type Intent string

const (
	IntentEducation      Intent = "education_question"
	IntentTax            Intent = "tax_question"
	IntentPortfolio      Intent = "portfolio_analysis"
	IntentMarket         Intent = "market_analysis"
	IntentNews           Intent = "news_analysis"
	IntentGoalPlanning   Intent = "goal_planning"
	IntentInvestmentPlan Intent = "investment_plan"
	IntentUnknown        Intent = "unknown"
)

// AgentKind names a specialized agent.
type AgentKind string

const (
	AgentFinanceQA AgentKind = "finance_qa"
	AgentPortfolio AgentKind = "portfolio_analysis"
	AgentMarket    AgentKind = "market_analysis"
	AgentGoal      AgentKind = "goal_planning"
	AgentTax       AgentKind = "tax_education"
	AgentNews      AgentKind = "news_synthesis"
)

// AllAgentKinds lists every agent, in routing preference order.
var AllAgentKinds = []AgentKind{
	AgentFinanceQA, AgentPortfolio, AgentMarket, AgentGoal, AgentTax, AgentNews,
}

// Citation points an answer fragment at its source.
type Citation struct {
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Category  string `json:"category"`
}

// AgentOutput is the uniform result contract every agent returns. Agents
// degrade internally; a returned error means the agent could not produce
// even a degraded answer.
type AgentOutput struct {
	AnswerText     string                 `json:"answer_text"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`
	Citations      []Citation             `json:"citations,omitempty"`
	ToolCallsMade  []string               `json:"tool_calls_made,omitempty"`
}

// GoalParams are structured goal-planning inputs supplied with a request.
type GoalParams struct {
	TargetAmount        float64 `json:"goal_amount"`
	CurrentValue        float64 `json:"current_value"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	TimeHorizonYears    int     `json:"time_horizon_years"`
	RiskAppetite        string  `json:"risk_appetite,omitempty"` // low | moderate | high
}

// Payload carries optional structured inputs alongside the chat message.
// Holdings maps ticker symbols to dollar values.
type Payload struct {
	Holdings map[string]float64 `json:"holdings,omitempty"`
	Goal     *GoalParams        `json:"goal,omitempty"`
	Tickers  []string           `json:"tickers,omitempty"`
}

// Agent executes one specialized capability.
type Agent interface {
	Kind() AgentKind
	Execute(ctx context.Context, userMessage string, reqCtx RequestContext) (AgentOutput, error)
}

// RequestContext carries per-request inputs shared by all agents.
type RequestContext struct {
	SessionID string
	UserID    string
	Intent    IntentResult
	History   []conversation.Message
	Summary   *conversation.Summary
	// Shared holds prior agents' structured outputs in sequential mode,
	// keyed "<kind>_output".
	Shared map[string]interface{}
}

// IntentResult is the classifier's verdict plus extracted entities. Intents
// is score-ordered; Primary is its head (or unknown).
type IntentResult struct {
	Primary    Intent    `json:"intent"`
	Intents    []Intent  `json:"intents"`
	Confidence float64   `json:"confidence"`
	Tickers    []string  `json:"tickers,omitempty"`
	Amounts    []float64 `json:"amounts,omitempty"`
	Timeframe  string    `json:"timeframe,omitempty"`
}

// RouterDecision is the ordered, deduplicated agent selection.
type RouterDecision struct {
	Agents []AgentKind `json:"agents"`
	Reason string      `json:"reason"`
}

// ExecStatus is the terminal status of one agent execution.
type ExecStatus string

const (
	StatusSuccess ExecStatus = "success"
	StatusError   ExecStatus = "error"
	StatusTimeout ExecStatus = "timeout"
)

// ExecutionRecord captures one agent run, successful or not. Latency is
// always recorded.
type ExecutionRecord struct {
	Kind    AgentKind     `json:"agent"`
	Status  ExecStatus    `json:"status"`
	Output  AgentOutput   `json:"output,omitempty"`
	Err     string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Result is the workflow's answer envelope, always well formed.
type Result struct {
	Response       string                 `json:"response"`
	Citations      []Citation             `json:"citations"`
	Confidence     float64                `json:"confidence"`
	Intent         Intent                 `json:"intent"`
	AgentsUsed     []string               `json:"agents_used"`
	ExecutionTimes map[string]int64       `json:"execution_times_ms"`
	TotalTimeMS    int64                  `json:"total_time_ms"`
	SessionID      string                 `json:"session_id"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}
