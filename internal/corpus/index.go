package corpus

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// Index is a Bleve full-text index over cleaned utterance text.
type Index struct {
	index bleve.Index
}

type indexDoc struct {
	Clean   string `json:"clean"`
	Corpus  string `json:"corpus"`
	Speaker string `json:"speaker"`
}

// NewIndex creates or opens a Bleve index at path. An existing index is
// opened and reused; remove the directory to force a full re-index after a
// mapping change.
func NewIndex(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so child forms
	// like "doggie" match exactly rather than stemmed variants.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("clean", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("corpus", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("speaker", keywordFieldMapping)
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// Hit is one index hit before hydration from the store.
type Hit struct {
	ID    string
	Score float64
}

// Search runs a match query over cleaned text, optionally restricted to one
// corpus, and returns up to limit hits by score.
func (ix *Index) Search(ctx context.Context, query, corpusFilter string, limit int) ([]Hit, error) {
	mq := bleve.NewMatchQuery(query)
	mq.SetField("clean")

	var q blevequery.Query = mq
	if corpusFilter != "" {
		tq := bleve.NewTermQuery(corpusFilter)
		tq.SetField("corpus")
		q = bleve.NewConjunctionQuery(mq, tq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	hits := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		hits[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return hits, nil
}

// IndexBatch adds utterance documents in one batch.
func (ix *Index) IndexBatch(ctx context.Context, docs map[string]indexDoc) error {
	batch := ix.index.NewBatch()
	for id, doc := range docs {
		if err := batch.Index(id, doc); err != nil {
			return err
		}
	}
	return ix.index.Batch(batch)
}

// DeleteBatch removes documents by ID in one batch.
func (ix *Index) DeleteBatch(ctx context.Context, ids []string) error {
	batch := ix.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return ix.index.Batch(batch)
}

// DocCount returns the number of indexed utterances.
func (ix *Index) DocCount() (uint64, error) {
	return ix.index.DocCount()
}

// Close closes the Bleve index.
func (ix *Index) Close() error {
	return ix.index.Close()
}
