package agents

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/advisor/internal/orchestration"
)

// PortfolioAgent analyzes holdings: allocation percentages, diversification
// score, concentration and a risk read. Holdings come from the shared
// request context or are inferred from tickers in the message.
type PortfolioAgent struct {
	logger *log.Logger
}

func NewPortfolioAgent(deps Deps) *PortfolioAgent {
	return &PortfolioAgent{logger: deps.Logger}
}

func (a *PortfolioAgent) Kind() orchestration.AgentKind { return orchestration.AgentPortfolio }

// Position is one holding under analysis.
type Position struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

func (a *PortfolioAgent) Execute(_ context.Context, _ string, reqCtx orchestration.RequestContext) (orchestration.AgentOutput, error) {
	positions := positionsFromContext(reqCtx)
	if len(positions) == 0 {
		return orchestration.AgentOutput{
			AnswerText: "I can analyze your portfolio once you share your holdings, for example: 'My portfolio is $60,000 VTI, $30,000 BND, $10,000 VXUS'.",
		}, nil
	}

	total := 0.0
	for _, p := range positions {
		total += p.Value
	}
	if total <= 0 {
		return orchestration.AgentOutput{
			AnswerText: "The holdings you shared have no positive total value, so there is nothing to analyze yet.",
		}, nil
	}

	type allocation struct {
		Symbol  string
		Percent float64
	}
	allocations := make([]allocation, 0, len(positions))
	weights := make([]float64, 0, len(positions))
	for _, p := range positions {
		pct := p.Value / total * 100
		allocations = append(allocations, allocation{p.Symbol, pct})
		weights = append(weights, p.Value/total)
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].Percent > allocations[j].Percent })

	score := DiversificationScore(weights)
	risk := riskLevel(score, allocations[0].Percent)

	var b strings.Builder
	fmt.Fprintf(&b, "Your portfolio totals $%.2f across %d holdings.\n\nAllocation:\n", total, len(positions))
	for _, al := range allocations {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", al.Symbol, al.Percent)
	}
	fmt.Fprintf(&b, "\nDiversification score: %.0f/100. Risk level: %s.", score, risk)
	if allocations[0].Percent >= 50 {
		fmt.Fprintf(&b, " Your largest position (%s at %.1f%%) dominates the portfolio; you should consider spreading it across more assets.", allocations[0].Symbol, allocations[0].Percent)
	}

	alloc := make(map[string]float64, len(allocations))
	for _, al := range allocations {
		alloc[al.Symbol] = al.Percent
	}
	return orchestration.AgentOutput{
		AnswerText: b.String(),
		StructuredData: map[string]interface{}{
			"total_value":     total,
			"holdings":        len(positions),
			"allocation":      alloc,
			"diversification": score,
			"risk_level":      risk,
		},
	}, nil
}

// DiversificationScore maps the Herfindahl index of the weight vector onto
// 0-100. A single holding scores 0; equal weights score 100.
func DiversificationScore(weights []float64) float64 {
	n := len(weights)
	if n <= 1 {
		return 0
	}
	h := 0.0
	for _, w := range weights {
		h += w * w
	}
	score := (1 - h) / (1 - 1/float64(n)) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func riskLevel(score, topPct float64) string {
	switch {
	case topPct >= 50 || score < 40:
		return "high"
	case score < 70:
		return "moderate"
	default:
		return "low"
	}
}

func positionsFromContext(reqCtx orchestration.RequestContext) []Position {
	if raw, ok := reqCtx.Shared["holdings"]; ok {
		switch v := raw.(type) {
		case []Position:
			return v
		case map[string]float64:
			out := make([]Position, 0, len(v))
			for sym, val := range v {
				out = append(out, Position{Symbol: sym, Value: val})
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
			return out
		}
	}
	// Pair extracted tickers with extracted amounts when they line up,
	// e.g. "$60,000 VTI, $30,000 BND".
	tickers := reqCtx.Intent.Tickers
	amounts := reqCtx.Intent.Amounts
	if len(tickers) > 0 && len(tickers) == len(amounts) {
		out := make([]Position, 0, len(tickers))
		for i, t := range tickers {
			out = append(out, Position{Symbol: t, Value: amounts[i]})
		}
		return out
	}
	return nil
}
