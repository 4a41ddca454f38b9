package agents

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
	"github.com/mohammad-safakhou/advisor/internal/rag"
)

// TaxAgent answers tax education questions from the tax slice of the
// knowledge base. It teaches concepts; it never gives filing advice.
type TaxAgent struct {
	llm       llm.Client
	retriever rag.Retriever
	cfg       config.RAGConfig
	logger    *log.Logger
}

func NewTaxAgent(deps Deps) *TaxAgent {
	return &TaxAgent{llm: deps.LLM, retriever: deps.Retriever, cfg: deps.RAG, logger: deps.Logger}
}

func (a *TaxAgent) Kind() orchestration.AgentKind { return orchestration.AgentTax }

const taxSystemPrompt = `You are a tax educator. Explain tax concepts using only the provided reference material. Stick to general education; never give advice for a specific filing or tell the user what to do on their return.`

func (a *TaxAgent) Execute(ctx context.Context, userMessage string, _ orchestration.RequestContext) (orchestration.AgentOutput, error) {
	return answerFromKnowledge(ctx, a.llm, a.retriever, a.cfg, userMessage, "tax", taxSystemPrompt, a.logger)
}
