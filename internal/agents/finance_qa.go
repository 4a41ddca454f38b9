package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
	"github.com/mohammad-safakhou/advisor/internal/rag"
)

// FinanceQAAgent answers general financial education questions from the
// knowledge base, composing the answer with the model when available.
type FinanceQAAgent struct {
	llm       llm.Client
	retriever rag.Retriever
	cfg       config.RAGConfig
	logger    *log.Logger
}

func NewFinanceQAAgent(deps Deps) *FinanceQAAgent {
	return &FinanceQAAgent{llm: deps.LLM, retriever: deps.Retriever, cfg: deps.RAG, logger: deps.Logger}
}

func (a *FinanceQAAgent) Kind() orchestration.AgentKind { return orchestration.AgentFinanceQA }

const financeQASystemPrompt = `You are a financial educator. Answer the user's question using only the provided reference material. Be clear and concise. If the material does not cover the question, say so rather than guessing.`

func (a *FinanceQAAgent) Execute(ctx context.Context, userMessage string, _ orchestration.RequestContext) (orchestration.AgentOutput, error) {
	return answerFromKnowledge(ctx, a.llm, a.retriever, a.cfg, userMessage, "", financeQASystemPrompt, a.logger)
}

// answerFromKnowledge is the shared retrieve-then-compose path used by the
// education and tax agents. It degrades to extractive snippets when the
// model call fails and to a polite fallback when retrieval finds nothing.
func answerFromKnowledge(ctx context.Context, client llm.Client, retriever rag.Retriever, cfg config.RAGConfig, userMessage, category, systemPrompt string, logger *log.Logger) (orchestration.AgentOutput, error) {
	out := orchestration.AgentOutput{StructuredData: map[string]interface{}{}}

	var docs []rag.Document
	if retriever != nil {
		found, err := retriever.Retrieve(ctx, userMessage, cfg.TopK, category)
		if err != nil {
			logger.Printf("knowledge retrieval failed: %v", err)
		} else {
			for _, d := range found {
				if d.Score >= cfg.MinRelevance {
					docs = append(docs, d)
				}
			}
		}
	}
	out.ToolCallsMade = append(out.ToolCallsMade, "knowledge_retrieve")

	if len(docs) == 0 {
		out.AnswerText = "I don't have reference material covering that question. Could you rephrase it, or ask about a core investing or tax concept?"
		return out, nil
	}

	var refs strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&refs, "[%d] %s\n%s\n\n", i+1, d.Title, d.Content)
		out.Citations = append(out.Citations, orchestration.Citation{
			Title: d.Title, SourceURL: d.SourceURL, Category: d.Category,
		})
	}
	out.StructuredData["documents_used"] = len(docs)

	if client != nil {
		answer, err := client.Complete(ctx, []llm.Turn{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Reference material:\n%s\nQuestion: %s", refs.String(), userMessage)},
		})
		if err == nil && strings.TrimSpace(answer) != "" {
			out.AnswerText = answer
			out.ToolCallsMade = append(out.ToolCallsMade, "llm_compose")
			return out, nil
		}
		if err != nil {
			logger.Printf("model compose failed, degrading to extractive answer: %v", err)
		}
	}

	// Extractive fallback: lead with the best-matching document.
	out.AnswerText = fmt.Sprintf("%s\n\n%s", docs[0].Title, docs[0].Content)
	return out, nil
}
