// Package corpus persists parsed utterances in SQLite and keeps a Bleve
// full-text index over their cleaned text in step with the store.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/models"
)

const idPrefix = "utt:"

// UtteranceID returns a stable ID for an utterance. The same corpus, source
// file, position, and raw text always map to the same ID, so re-parsing a
// file is idempotent.
func UtteranceID(corpusName, file string, index int, raw string) string {
	key := fmt.Sprintf("%s|%s|%d|%s", corpusName, filepath.Clean(file), index, raw)
	hash := sha256.Sum256([]byte(key))
	return idPrefix + hex.EncodeToString(hash[:])
}

// Corpus couples the utterance store with the text index.
type Corpus struct {
	store  *Store
	index  *Index
	logger *zap.Logger
}

// Open opens or creates the store and index under the given paths.
func Open(dbPath, indexPath string, logger *zap.Logger) (*Corpus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	index, err := NewIndex(indexPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Corpus{store: store, index: index, logger: logger}, nil
}

// Store exposes the underlying utterance store.
func (c *Corpus) Store() *Store {
	return c.store
}

// AddUtterances stores and indexes utterances.
func (c *Corpus) AddUtterances(ctx context.Context, utterances []*models.Utterance) error {
	if err := c.store.Add(ctx, utterances); err != nil {
		return fmt.Errorf("failed to store utterances: %w", err)
	}
	if err := c.index.IndexBatch(ctx, indexDocs(utterances)); err != nil {
		return fmt.Errorf("failed to index utterances: %w", err)
	}
	c.logger.Debug("Added utterances", zap.Int("count", len(utterances)))
	return nil
}

// ReplaceFile swaps all utterances of one source file in both the store and
// the index.
func (c *Corpus) ReplaceFile(ctx context.Context, file string, utterances []*models.Utterance) error {
	removed, err := c.store.ReplaceFile(ctx, file, utterances)
	if err != nil {
		return fmt.Errorf("failed to replace utterances for %s: %w", file, err)
	}
	if len(removed) > 0 {
		if err := c.index.DeleteBatch(ctx, removed); err != nil {
			return fmt.Errorf("failed to unindex removed utterances: %w", err)
		}
	}
	if len(utterances) > 0 {
		if err := c.index.IndexBatch(ctx, indexDocs(utterances)); err != nil {
			return fmt.Errorf("failed to index utterances: %w", err)
		}
	}
	c.logger.Info("Replaced file utterances",
		zap.String("file", file),
		zap.Int("removed", len(removed)),
		zap.Int("added", len(utterances)))
	return nil
}

// DeleteFile removes all utterances of one source file from the store and
// the index.
func (c *Corpus) DeleteFile(ctx context.Context, file string) error {
	return c.ReplaceFile(ctx, file, nil)
}

// Search runs a validated query against the index and hydrates hits from
// the store, ranked by score.
func (c *Corpus) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	hits, err := c.index.Search(ctx, query.Query, query.Corpus, query.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		u, err := c.store.Get(ctx, hit.ID)
		if err != nil {
			c.logger.Warn("Indexed utterance missing from store", zap.String("id", hit.ID))
			continue
		}
		results = append(results, &models.SearchResult{
			Utterance: u,
			Score:     hit.Score,
			Rank:      len(results) + 1,
		})
	}

	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     query.Query,
	}, nil
}

// AssignSplits assigns train/dev/test splits over the whole corpus.
func (c *Corpus) AssignSplits(ctx context.Context, seed int64, testFrac, devFrac float64) (SplitCounts, error) {
	counts, err := c.store.AssignSplits(ctx, seed, testFrac, devFrac)
	if err != nil {
		return counts, err
	}
	c.logger.Info("Assigned splits",
		zap.Int64("seed", seed),
		zap.Int64("train", counts.Train),
		zap.Int64("dev", counts.Dev),
		zap.Int64("test", counts.Test))
	return counts, nil
}

// ListSplit returns the utterances assigned to one split.
func (c *Corpus) ListSplit(ctx context.Context, split string) ([]*models.Utterance, error) {
	return c.store.ListSplit(ctx, split)
}

// ListAll returns every stored utterance.
func (c *Corpus) ListAll(ctx context.Context) ([]*models.Utterance, error) {
	return c.store.ListAll(ctx)
}

// Status describes the corpus for the status command and status endpoint.
type Status struct {
	Stats
	Indexed uint64 `json:"indexed"`
}

// Status returns store counts plus the index document count.
func (c *Corpus) Status(ctx context.Context) (*Status, error) {
	stats, err := c.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	indexed, err := c.index.DocCount()
	if err != nil {
		return nil, err
	}
	return &Status{Stats: *stats, Indexed: indexed}, nil
}

// Close closes the store and the index.
func (c *Corpus) Close() error {
	storeErr := c.store.Close()
	indexErr := c.index.Close()
	if storeErr != nil {
		return storeErr
	}
	return indexErr
}

func indexDocs(utterances []*models.Utterance) map[string]indexDoc {
	docs := make(map[string]indexDoc, len(utterances))
	for _, u := range utterances {
		docs[u.ID] = indexDoc{Clean: u.Clean, Corpus: u.Corpus, Speaker: u.Speaker}
	}
	return docs
}
