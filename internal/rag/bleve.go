package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"
)

// BleveRetriever indexes the knowledge base in memory at startup and serves
// full-text queries from it.
type BleveRetriever struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]Document
}

// NewBleveRetriever builds an in-memory index from every *.json file under
// dataDir. Each file holds an array of documents.
func NewBleveRetriever(dataDir string) (*BleveRetriever, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge index: %w", err)
	}
	r := &BleveRetriever{index: index, docs: make(map[string]Document)}

	if dataDir != "" {
		files, err := filepath.Glob(filepath.Join(dataDir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing knowledge base: %w", err)
		}
		for _, f := range files {
			if err := r.loadFile(f); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *BleveRetriever) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return r.Add(docs...)
}

// Add indexes documents. Entries without an ID get one derived from the
// title.
func (r *BleveRetriever) Add(docs ...Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.index.NewBatch()
	for _, d := range docs {
		if d.ID == "" {
			d.ID = strings.ToLower(strings.ReplaceAll(d.Title, " ", "-"))
		}
		if err := batch.Index(d.ID, map[string]interface{}{
			"title":    d.Title,
			"content":  d.Content,
			"category": d.Category,
		}); err != nil {
			return fmt.Errorf("indexing %s: %w", d.ID, err)
		}
		r.docs[d.ID] = d
	}
	if err := r.index.Batch(batch); err != nil {
		return fmt.Errorf("committing index batch: %w", err)
	}
	return nil
}

func (r *BleveRetriever) Retrieve(ctx context.Context, q string, topK int, category string) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if topK <= 0 {
		topK = 5
	}

	match := bleve.NewMatchQuery(q)
	var full query.Query = match
	if category != "" {
		cat := bleve.NewMatchPhraseQuery(category)
		cat.SetField("category")
		full = bleve.NewConjunctionQuery(match, cat)
	}

	req := bleve.NewSearchRequest(full)
	req.Size = topK
	res, err := r.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}

	out := make([]Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, ok := r.docs[hit.ID]
		if !ok {
			continue
		}
		doc.Score = hit.Score
		out = append(out, doc)
	}
	return out, nil
}
