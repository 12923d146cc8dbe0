// Package ingest parses raw CHAT transcripts into the corpus store and
// search index. It is the single write path shared by the parse and
// clean subcommands and the transcript watcher.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/chat"
	"github.com/kidtalk/agelab/internal/clean"
	"github.com/kidtalk/agelab/internal/corpus"
	"github.com/kidtalk/agelab/internal/models"
)

// Ingestor turns transcript files into stored, cleaned, searchable
// utterance records. File keys are corpus-qualified so same-named
// transcripts in different corpora stay distinct.
type Ingestor struct {
	corpus  *corpus.Corpus
	cleaner *clean.Cleaner
	logger  *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// New creates an ingestor writing through the given corpus.
func New(c *corpus.Corpus, cleaner *clean.Cleaner, opts ...Option) *Ingestor {
	in := &Ingestor{
		corpus:  c,
		cleaner: cleaner,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// CorpusName derives the corpus a transcript belongs to from its path:
// the base name of the parent directory.
func CorpusName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Base(filepath.Dir(abs))
}

// fileKey builds the corpus-qualified key a transcript's records are
// stored under.
func fileKey(corpusName, path string) string {
	return corpusName + "/" + filepath.Base(path)
}

// IngestFile parses one transcript, cleans every target-child utterance
// and replaces the file's records in the corpus. When corpusName is
// empty it is derived from the transcript's parent directory. Returns
// the number of utterances stored; a transcript with no target child
// stores zero and clears any previous records for the file.
func (in *Ingestor) IngestFile(ctx context.Context, path, corpusName string) (int, error) {
	if corpusName == "" {
		corpusName = CorpusName(path)
	}
	utterances, err := chat.ParseFile(path, corpusName)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	key := fileKey(corpusName, path)
	for i, u := range utterances {
		u.File = key
		u.Clean = in.cleaner.Clean(u.Raw)
		u.WordCount = clean.WordCount(u.Clean)
		u.ID = corpus.UtteranceID(corpusName, key, i, u.Raw)
	}
	if err := in.corpus.ReplaceFile(ctx, key, utterances); err != nil {
		return 0, err
	}
	in.logger.Debug("transcript ingested",
		zap.String("file", key),
		zap.Int("utterances", len(utterances)))
	return len(utterances), nil
}

// IngestDirectory walks dir and ingests every transcript whose
// extension is in extensions (empty = all files). Returns the number of
// files and utterances ingested and the first error encountered.
func (in *Ingestor) IngestDirectory(ctx context.Context, dir, corpusName string, extensions []string) (files, utterances int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extensionAllowed(path, extensions) {
			return nil
		}
		n, ingestErr := in.IngestFile(ctx, path, corpusName)
		if ingestErr != nil {
			return ingestErr
		}
		files++
		utterances += n
		return nil
	})
	return files, utterances, err
}

// RemoveFile drops a transcript's records from the corpus, for example
// after the file disappeared from a watched directory.
func (in *Ingestor) RemoveFile(ctx context.Context, path, corpusName string) error {
	if corpusName == "" {
		corpusName = CorpusName(path)
	}
	return in.corpus.DeleteFile(ctx, fileKey(corpusName, path))
}

// ReClean reruns the cleaner over every stored utterance's raw text and
// rewrites the records file by file. IDs and split assignments are
// preserved; the search index picks up the refreshed clean text.
func (in *Ingestor) ReClean(ctx context.Context) (int, error) {
	all, err := in.corpus.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	byFile := make(map[string][]*models.Utterance)
	var order []string
	for _, u := range all {
		if _, ok := byFile[u.File]; !ok {
			order = append(order, u.File)
		}
		u.Clean = in.cleaner.Clean(u.Raw)
		u.WordCount = clean.WordCount(u.Clean)
		byFile[u.File] = append(byFile[u.File], u)
	}
	for _, file := range order {
		if err := in.corpus.ReplaceFile(ctx, file, byFile[file]); err != nil {
			return 0, err
		}
	}
	in.logger.Info("corpus re-cleaned",
		zap.Int("files", len(order)),
		zap.Int("utterances", len(all)))
	return len(all), nil
}

func extensionAllowed(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
