// Package agents implements the specialized capabilities behind the
// orchestrator: education Q&A, portfolio math, market lookups, goal
// projections, tax education and news synthesis. Agents degrade internally
// and return valid output wherever possible.
package agents

import (
	"log"

	"github.com/mohammad-safakhou/advisor/config"
	"github.com/mohammad-safakhou/advisor/internal/llm"
	"github.com/mohammad-safakhou/advisor/internal/market"
	"github.com/mohammad-safakhou/advisor/internal/orchestration"
	"github.com/mohammad-safakhou/advisor/internal/rag"
)

// Deps carries the shared collaborators agents are built from.
type Deps struct {
	LLM       llm.Client
	Retriever rag.Retriever
	Market    market.Provider
	RAG       config.RAGConfig
	Logger    *log.Logger
}

// NewRegistry builds the full agent set.
func NewRegistry(deps Deps) *orchestration.Registry {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Writer(), "[AGENTS] ", log.LstdFlags)
	}
	deps.RAG = deps.RAG.Normalize()
	return orchestration.NewRegistry(
		NewFinanceQAAgent(deps),
		NewPortfolioAgent(deps),
		NewMarketAgent(deps),
		NewGoalAgent(deps),
		NewTaxAgent(deps),
		NewNewsAgent(deps),
	)
}
