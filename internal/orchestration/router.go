package orchestration

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/advisor/internal/llm"
)

// intentAgents maps each intent to its agents, in priority order.
var intentAgents = map[Intent][]AgentKind{
	IntentEducation:      {AgentFinanceQA},
	IntentTax:            {AgentTax},
	IntentPortfolio:      {AgentPortfolio},
	IntentMarket:         {AgentMarket},
	IntentNews:           {AgentNews},
	IntentGoalPlanning:   {AgentGoal},
	IntentInvestmentPlan: {AgentPortfolio, AgentGoal, AgentTax},
	IntentUnknown:        {AgentFinanceQA},
}

// Router chooses which agents handle a classified request. Decisions are
// never empty.
type Router interface {
	Route(ctx context.Context, userMessage string, intent IntentResult) RouterDecision
}

// KeywordRouter maps detected intents straight onto agents via the static
// table, deduplicating while preserving order.
type KeywordRouter struct{}

func NewKeywordRouter() *KeywordRouter { return &KeywordRouter{} }

func (r *KeywordRouter) Route(_ context.Context, _ string, intent IntentResult) RouterDecision {
	var agents []AgentKind
	seen := map[AgentKind]bool{}
	for _, in := range intent.Intents {
		for _, a := range intentAgents[in] {
			if !seen[a] {
				seen[a] = true
				agents = append(agents, a)
			}
		}
	}
	if len(agents) == 0 {
		agents = []AgentKind{AgentFinanceQA}
	}
	return RouterDecision{
		Agents: agents,
		Reason: fmt.Sprintf("detected intents %v, routing to %d agent(s)", intent.Intents, len(agents)),
	}
}

// LLMRouter asks the model to pick exactly one agent by name. Any deviation
// from the allowed names, or a failed call, falls back to finance_qa.
type LLMRouter struct {
	client llm.Client
	logger *log.Logger
}

func NewLLMRouter(client llm.Client, logger *log.Logger) *LLMRouter {
	if logger == nil {
		logger = log.New(log.Writer(), "[ROUTER] ", log.LstdFlags)
	}
	return &LLMRouter{client: client, logger: logger}
}

const routerSystemPrompt = `You are a routing classifier for a financial advisor. Given a user question, reply with exactly one of these agent names and nothing else:
finance_qa - general financial education questions
portfolio_analysis - analyzing the user's holdings, allocation, diversification
market_analysis - stock prices, quotes, fundamentals
goal_planning - savings goals, projections, timelines
tax_education - tax questions and strategies
news_synthesis - market news and sentiment`

func (r *LLMRouter) Route(ctx context.Context, userMessage string, _ IntentResult) RouterDecision {
	reply, err := r.client.Complete(ctx, []llm.Turn{
		{Role: "system", Content: routerSystemPrompt},
		{Role: "user", Content: userMessage},
	})
	if err != nil {
		r.logger.Printf("routing call failed, falling back to %s: %v", AgentFinanceQA, err)
		return RouterDecision{Agents: []AgentKind{AgentFinanceQA}, Reason: "model routing failed, default agent"}
	}

	name := AgentKind(strings.TrimSpace(strings.ToLower(reply)))
	for _, k := range AllAgentKinds {
		if name == k {
			return RouterDecision{Agents: []AgentKind{k}, Reason: "model selected " + string(k)}
		}
	}
	r.logger.Printf("routing reply %q not a known agent, falling back to %s", reply, AgentFinanceQA)
	return RouterDecision{Agents: []AgentKind{AgentFinanceQA}, Reason: "model reply unrecognized, default agent"}
}

// NewRouter builds the configured strategy.
func NewRouter(strategy string, client llm.Client, logger *log.Logger) Router {
	if strategy == "llm" && client != nil {
		return NewLLMRouter(client, logger)
	}
	return NewKeywordRouter()
}
