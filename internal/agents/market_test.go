package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/market"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
)

func TestMarketAgentQuotes(t *testing.T) {
	provider := &market.StaticProvider{Quotes: map[string]market.Quote{
		"AAPL": {Symbol: "AAPL", Price: 190.12, ChangePercent: 1.2},
	}}
	agent := NewMarketAgent(Deps{Market: provider, Logger: quietLogger()})

	out, err := agent.Execute(context.Background(), "what is the price of AAPL",
		orchestration.RequestContext{Intent: orchestration.IntentResult{Tickers: []string{"AAPL"}}})
	require.NoError(t, err)
	assert.Contains(t, out.AnswerText, "AAPL: $190.12")
}

func TestMarketAgentPartialFailure(t *testing.T) {
	provider := &market.StaticProvider{Quotes: map[string]market.Quote{
		"AAPL": {Symbol: "AAPL", Price: 190.12},
	}}
	agent := NewMarketAgent(Deps{Market: provider, Logger: quietLogger()})

	out, err := agent.Execute(context.Background(), "compare AAPL and ZZZZ",
		orchestration.RequestContext{Intent: orchestration.IntentResult{Tickers: []string{"AAPL", "ZZZZ"}}})
	require.NoError(t, err, "partial failure must not error the agent")
	assert.Contains(t, out.AnswerText, "AAPL")
	assert.Contains(t, out.AnswerText, "ZZZZ")
}

func TestMarketAgentNoTickers(t *testing.T) {
	agent := NewMarketAgent(Deps{Market: &market.StaticProvider{}, Logger: quietLogger()})
	out, err := agent.Execute(context.Background(), "how is the market", orchestration.RequestContext{})
	require.NoError(t, err)
	assert.Contains(t, out.AnswerText, "ticker symbol")
}

func TestNewsAgentDigestsHeadlines(t *testing.T) {
	provider := &market.StaticProvider{News: []market.Headline{
		{Title: "Markets rally on earnings", URL: "https://news/1", Source: "wire"},
		{Title: "Fed holds rates steady", URL: "https://news/2", Source: "wire"},
	}}
	agent := NewNewsAgent(Deps{
		Market: provider,
		LLM:    &llm.StaticClient{Default: "Markets are broadly positive on earnings; rates unchanged."},
		Logger: quietLogger(),
	})

	out, err := agent.Execute(context.Background(), "what's happening in the markets?", orchestration.RequestContext{})
	require.NoError(t, err)
	assert.Contains(t, out.AnswerText, "broadly positive")
	assert.Len(t, out.Citations, 2)
}

func TestNewsAgentDegradesWithoutModel(t *testing.T) {
	provider := &market.StaticProvider{News: []market.Headline{
		{Title: "Markets rally on earnings", URL: "https://news/1"},
	}}
	agent := NewNewsAgent(Deps{
		Market: provider,
		LLM:    &llm.StaticClient{Err: errors.New("model unavailable")},
		Logger: quietLogger(),
	})

	out, err := agent.Execute(context.Background(), "latest market news", orchestration.RequestContext{})
	require.NoError(t, err)
	assert.Contains(t, out.AnswerText, "Markets rally on earnings")
}
