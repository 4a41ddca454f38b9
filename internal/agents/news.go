package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/market"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
)

// NewsAgent fetches recent headlines for the topic and has the model
// summarize sentiment. Without a model it lists the headlines.
type NewsAgent struct {
	llm      llm.Client
	provider market.Provider
	logger   *log.Logger
}

func NewNewsAgent(deps Deps) *NewsAgent {
	return &NewsAgent{llm: deps.LLM, provider: deps.Market, logger: deps.Logger}
}

func (a *NewsAgent) Kind() orchestration.AgentKind { return orchestration.AgentNews }

const newsSystemPrompt = `You summarize financial news. Given headlines, produce a short neutral digest of what is moving markets and the overall sentiment. Do not speculate beyond the headlines.`

func (a *NewsAgent) Execute(ctx context.Context, userMessage string, reqCtx orchestration.RequestContext) (orchestration.AgentOutput, error) {
	if a.provider == nil {
		return orchestration.AgentOutput{
			AnswerText: "Market news is not available right now. Please try again later.",
		}, nil
	}

	topic := "markets"
	if len(reqCtx.Intent.Tickers) > 0 {
		topic = reqCtx.Intent.Tickers[0]
	}

	headlines, err := a.provider.Headlines(ctx, topic, 10)
	if err != nil || len(headlines) == 0 {
		if err != nil {
			a.logger.Printf("headline fetch for %q failed: %v", topic, err)
		}
		return orchestration.AgentOutput{
			AnswerText:    fmt.Sprintf("I couldn't find recent news about %s. Please try again later.", topic),
			ToolCallsMade: []string{"news_fetch"},
		}, nil
	}

	out := orchestration.AgentOutput{
		StructuredData: map[string]interface{}{"headline_count": len(headlines), "topic": topic},
		ToolCallsMade:  []string{"news_fetch"},
	}
	var listed []string
	for _, h := range headlines {
		listed = append(listed, "- "+h.Title)
		out.Citations = append(out.Citations, orchestration.Citation{
			Title: h.Title, SourceURL: h.URL, Category: "news",
		})
	}

	if a.llm != nil {
		digest, err := a.llm.Complete(ctx, []llm.Turn{
			{Role: "system", Content: newsSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nHeadlines:\n%s", userMessage, strings.Join(listed, "\n"))},
		})
		if err == nil && strings.TrimSpace(digest) != "" {
			out.AnswerText = digest
			out.ToolCallsMade = append(out.ToolCallsMade, "llm_compose")
			return out, nil
		}
		if err != nil {
			a.logger.Printf("news digest failed, listing headlines: %v", err)
		}
	}

	out.AnswerText = fmt.Sprintf("Recent headlines about %s:\n%s", topic, strings.Join(listed, "\n"))
	return out, nil
}
