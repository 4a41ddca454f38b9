package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/advisor/internal/market"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
)

// MarketAgent looks up quotes for tickers mentioned in the message.
type MarketAgent struct {
	provider market.Provider
	logger   *log.Logger
}

func NewMarketAgent(deps Deps) *MarketAgent {
	return &MarketAgent{provider: deps.Market, logger: deps.Logger}
}

func (a *MarketAgent) Kind() orchestration.AgentKind { return orchestration.AgentMarket }

func (a *MarketAgent) Execute(ctx context.Context, _ string, reqCtx orchestration.RequestContext) (orchestration.AgentOutput, error) {
	tickers := reqCtx.Intent.Tickers
	if len(tickers) == 0 {
		return orchestration.AgentOutput{
			AnswerText: "Which stock are you asking about? Give me a ticker symbol like AAPL or VTI and I'll look up the latest data.",
		}, nil
	}
	if a.provider == nil {
		return orchestration.AgentOutput{
			AnswerText: "Market data is not available right now. Please try again later.",
		}, nil
	}

	quotes := make(map[string]interface{}, len(tickers))
	var lines []string
	var failures []string
	for _, t := range tickers {
		q, err := a.provider.Quote(ctx, t)
		if err != nil {
			a.logger.Printf("quote lookup for %s failed: %v", t, err)
			failures = append(failures, t)
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: $%.2f (%+.2f%%)", q.Symbol, q.Price, q.ChangePercent))
		quotes[q.Symbol] = map[string]interface{}{
			"price":          q.Price,
			"change":         q.Change,
			"change_percent": q.ChangePercent,
			"as_of":          q.AsOf,
		}
	}

	out := orchestration.AgentOutput{
		StructuredData: map[string]interface{}{"quotes": quotes},
		ToolCallsMade:  []string{"market_quote"},
	}
	switch {
	case len(lines) == 0:
		out.AnswerText = fmt.Sprintf("I couldn't retrieve market data for %s right now. Please try again later.", strings.Join(failures, ", "))
	case len(failures) > 0:
		out.AnswerText = fmt.Sprintf("Latest quotes:\n%s\n\nI couldn't retrieve data for %s.", strings.Join(lines, "\n"), strings.Join(failures, ", "))
	default:
		out.AnswerText = "Latest quotes:\n" + strings.Join(lines, "\n")
	}
	return out, nil
}
