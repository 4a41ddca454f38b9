package rag

import "context"

// Document is one knowledge-base entry returned by retrieval.
type Document struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Category  string  `json:"category"` // education | tax | market
	SourceURL string  `json:"source_url"`
	Score     float64 `json:"-"`
}

// Retriever finds knowledge-base documents relevant to a query. An empty
// filter matches all categories. Results come back score-descending; callers
// drop anything under their relevance floor.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, category string) ([]Document, error)
}
