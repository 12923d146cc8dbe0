package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/clean"
	"github.com/kidtalk/agelab/internal/corpus"
	"github.com/kidtalk/agelab/internal/models"
)

const sampleTranscript = `@UTF8
@Begin
@Languages:	eng
@Participants:	CHI Shem Target_Child , MOT Mother
@ID:	eng|Clark|CHI|2;2.6|male|||Target_Child|||
@ID:	eng|Clark|MOT|||||Mother|||
*CHI:	my ball .
*MOT:	where is it ?
*CHI:	doggie go [= points] .
@End
`

const shortTranscript = `@UTF8
@Begin
@ID:	eng|Clark|CHI|2;6.0|male|||Target_Child|||
*CHI:	want cookie .
@End
`

func TestIngestor_IngestFile(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3), WithLogger(zap.NewNop()))

	dir := filepath.Join(t.TempDir(), "clark")
	path := writeTranscript(t, dir, "shem01.cha", sampleTranscript)

	n, err := in.IngestFile(ctx, path, "")
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 utterances, got %d", n)
	}

	all, err := c.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 stored utterances, got %d", len(all))
	}
	for _, u := range all {
		if u.Corpus != "clark" {
			t.Errorf("Expected corpus clark, got %s", u.Corpus)
		}
		if u.File != "clark/shem01.cha" {
			t.Errorf("Expected file clark/shem01.cha, got %s", u.File)
		}
		if u.Speaker != "CHI" {
			t.Errorf("Expected speaker CHI, got %s", u.Speaker)
		}
		if u.AgeMonths != 26 {
			t.Errorf("Expected age 26 months, got %v", u.AgeMonths)
		}
	}

	found := findByRaw(all, "doggie go [= points] .")
	if found == nil {
		t.Fatal("Expected to find the doggie utterance")
	}
	if found.Clean != "doggie go" {
		t.Errorf("Expected clean text %q, got %q", "doggie go", found.Clean)
	}
	if found.WordCount != 2 {
		t.Errorf("Expected word count 2, got %d", found.WordCount)
	}

	resp, err := c.Search(ctx, &models.SearchQuery{Query: "doggie", Limit: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Expected 1 search hit, got %d", resp.Total)
	}
}

func TestIngestor_IngestFile_Reingest(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3))

	dir := filepath.Join(t.TempDir(), "clark")
	path := writeTranscript(t, dir, "shem01.cha", sampleTranscript)
	if _, err := in.IngestFile(ctx, path, ""); err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}

	writeTranscript(t, dir, "shem01.cha", shortTranscript)
	n, err := in.IngestFile(ctx, path, "")
	if err != nil {
		t.Fatalf("Re-ingest failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 utterance after re-ingest, got %d", n)
	}

	all, err := c.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 stored utterance, got %d", len(all))
	}
	if all[0].Clean != "want cookie" {
		t.Errorf("Expected clean text %q, got %q", "want cookie", all[0].Clean)
	}

	resp, err := c.Search(ctx, &models.SearchQuery{Query: "doggie", Limit: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("Expected removed utterance gone from index, got %d hits", resp.Total)
	}
}

func TestIngestor_IngestFile_ExplicitCorpusName(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3))

	path := writeTranscript(t, t.TempDir(), "shem01.cha", sampleTranscript)
	if _, err := in.IngestFile(ctx, path, "Clark"); err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}

	all, err := c.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	for _, u := range all {
		if u.Corpus != "Clark" {
			t.Errorf("Expected corpus Clark, got %s", u.Corpus)
		}
		if u.File != "Clark/shem01.cha" {
			t.Errorf("Expected file Clark/shem01.cha, got %s", u.File)
		}
	}
}

func TestIngestor_IngestDirectory(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3))

	dir := filepath.Join(t.TempDir(), "clark")
	writeTranscript(t, dir, "shem01.cha", sampleTranscript)
	writeTranscript(t, dir, "shem02.cha", shortTranscript)
	writeTranscript(t, dir, "notes.txt", "not a transcript")

	files, utterances, err := in.IngestDirectory(ctx, dir, "clark", []string{".cha"})
	if err != nil {
		t.Fatalf("IngestDirectory failed: %v", err)
	}
	if files != 2 {
		t.Errorf("Expected 2 files, got %d", files)
	}
	if utterances != 3 {
		t.Errorf("Expected 3 utterances, got %d", utterances)
	}
}

func TestIngestor_IngestDirectory_NotADirectory(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3))

	path := writeTranscript(t, t.TempDir(), "shem01.cha", sampleTranscript)
	if _, _, err := in.IngestDirectory(ctx, path, "", nil); err == nil {
		t.Error("Expected error for non-directory path")
	}
}

func TestIngestor_RemoveFile(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3))

	dir := filepath.Join(t.TempDir(), "clark")
	path := writeTranscript(t, dir, "shem01.cha", sampleTranscript)
	if _, err := in.IngestFile(ctx, path, ""); err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}

	if err := in.RemoveFile(ctx, path, ""); err != nil {
		t.Fatalf("RemoveFile failed: %v", err)
	}

	all, err := c.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected empty corpus after removal, got %d utterances", len(all))
	}
}

func TestIngestor_ReClean(t *testing.T) {
	ctx := context.Background()
	c := openTestCorpus(t)
	in := New(c, clean.New(3))

	raw := "the dog [= big] runs ."
	id := corpus.UtteranceID("clark", "clark/shem01.cha", 0, raw)
	stale := &models.Utterance{
		ID:        id,
		Corpus:    "clark",
		File:      "clark/shem01.cha",
		Speaker:   "CHI",
		AgeMonths: 30,
		Raw:       raw,
		Clean:     "WRONG",
		WordCount: 1,
		Split:     "train",
	}
	if err := c.AddUtterances(ctx, []*models.Utterance{stale}); err != nil {
		t.Fatalf("AddUtterances failed: %v", err)
	}

	n, err := in.ReClean(ctx)
	if err != nil {
		t.Fatalf("ReClean failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 re-cleaned utterance, got %d", n)
	}

	got, err := c.Store().Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Clean != "the dog runs" {
		t.Errorf("Expected clean text %q, got %q", "the dog runs", got.Clean)
	}
	if got.WordCount != 3 {
		t.Errorf("Expected word count 3, got %d", got.WordCount)
	}
	if got.Split != "train" {
		t.Errorf("Expected split preserved, got %q", got.Split)
	}
}

func TestCorpusName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/data/raw/clark/shem01.cha", "clark"},
		{"/data/raw/brown/adam01.cha", "brown"},
	}

	for _, tt := range tests {
		if got := CorpusName(tt.path); got != tt.expected {
			t.Errorf("CorpusName(%q) = %q, expected %q", tt.path, got, tt.expected)
		}
	}
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		expected   bool
	}{
		{"shem01.cha", []string{".cha"}, true},
		{"shem01.CHA", []string{".cha"}, true},
		{"shem01.cha", []string{"cha"}, true},
		{"notes.txt", []string{".cha"}, false},
		{"anything.txt", nil, true},
	}

	for _, tt := range tests {
		if got := extensionAllowed(tt.path, tt.extensions); got != tt.expected {
			t.Errorf("extensionAllowed(%q, %v) = %v, expected %v", tt.path, tt.extensions, got, tt.expected)
		}
	}
}

func openTestCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	dir := t.TempDir()
	c, err := corpus.Open(filepath.Join(dir, "corpus.db"), filepath.Join(dir, "utterances.bleve"), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open corpus: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func writeTranscript(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write transcript: %v", err)
	}
	return path
}

func findByRaw(utterances []*models.Utterance, raw string) *models.Utterance {
	for _, u := range utterances {
		if u.Raw == raw {
			return u
		}
	}
	return nil
}
