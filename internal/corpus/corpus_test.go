package corpus

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kidtalk/agelab/internal/models"
)

func TestUtteranceID(t *testing.T) {
	a := UtteranceID("Brown", "adam01.cha", 0, "the dog barks")
	b := UtteranceID("Brown", "adam01.cha", 0, "the dog barks")
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "utt:") {
		t.Errorf("ID missing prefix: %s", a)
	}
	if UtteranceID("Brown", "adam01.cha", 1, "the dog barks") == a {
		t.Error("different index produced the same ID")
	}
	if UtteranceID("Brown", "adam01.cha", 0, "other text") == a {
		t.Error("different text produced the same ID")
	}
	if UtteranceID("Brown", "./adam01.cha", 0, "the dog barks") != a {
		t.Error("unnormalized path produced a different ID")
	}
}

func newTestCorpus(t *testing.T) *Corpus {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "corpus.db"), filepath.Join(dir, "index.bleve"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCorpus_AddAndSearch(t *testing.T) {
	c := newTestCorpus(t)
	ctx := context.Background()

	utterances := []*models.Utterance{
		testUtterance("Brown", "adam01.cha", 0, "the dog barks", 30),
		testUtterance("Brown", "adam01.cha", 1, "my big ball", 30),
		testUtterance("Clark", "shem01.cha", 0, "dog runs fast", 28),
	}
	if err := c.AddUtterances(ctx, utterances); err != nil {
		t.Fatal(err)
	}

	resp, err := c.Search(ctx, &models.SearchQuery{Query: "dog"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 hits for dog, got %d", resp.Total)
	}
	for i, res := range resp.Results {
		if res.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, res.Rank)
		}
		if res.Utterance == nil || !strings.Contains(res.Utterance.Clean, "dog") {
			t.Errorf("hydrated utterance does not match query: %+v", res.Utterance)
		}
	}
	if resp.QueryTime < 0 {
		t.Errorf("negative query time: %d", resp.QueryTime)
	}

	filtered, err := c.Search(ctx, &models.SearchQuery{Query: "dog", Corpus: "Clark"})
	if err != nil {
		t.Fatal(err)
	}
	if filtered.Total != 1 || filtered.Results[0].Utterance.Corpus != "Clark" {
		t.Errorf("corpus filter returned %+v", filtered.Results)
	}

	none, err := c.Search(ctx, &models.SearchQuery{Query: "doggie"})
	if err != nil {
		t.Fatal(err)
	}
	if none.Total != 0 {
		t.Errorf("unstemmed query matched %d utterances", none.Total)
	}

	if _, err := c.Search(ctx, &models.SearchQuery{}); err == nil {
		t.Error("expected an error for an empty query")
	}
}

func TestCorpus_ReplaceFileReindex(t *testing.T) {
	c := newTestCorpus(t)
	ctx := context.Background()

	original := []*models.Utterance{
		testUtterance("Brown", "adam01.cha", 0, "purple elephant", 30),
	}
	if err := c.AddUtterances(ctx, original); err != nil {
		t.Fatal(err)
	}

	replacement := []*models.Utterance{
		testUtterance("Brown", "adam01.cha", 0, "green turtle", 30),
	}
	if err := c.ReplaceFile(ctx, "adam01.cha", replacement); err != nil {
		t.Fatal(err)
	}

	old, err := c.Search(ctx, &models.SearchQuery{Query: "elephant"})
	if err != nil {
		t.Fatal(err)
	}
	if old.Total != 0 {
		t.Errorf("stale utterance still indexed: %d hits", old.Total)
	}
	fresh, err := c.Search(ctx, &models.SearchQuery{Query: "turtle"})
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Total != 1 {
		t.Errorf("replacement not indexed: %d hits", fresh.Total)
	}

	if err := c.DeleteFile(ctx, "adam01.cha"); err != nil {
		t.Fatal(err)
	}
	gone, err := c.Search(ctx, &models.SearchQuery{Query: "turtle"})
	if err != nil {
		t.Fatal(err)
	}
	if gone.Total != 0 {
		t.Errorf("deleted utterance still indexed: %d hits", gone.Total)
	}
}

func TestCorpus_Status(t *testing.T) {
	c := newTestCorpus(t)
	ctx := context.Background()

	utterances := []*models.Utterance{
		testUtterance("Brown", "adam01.cha", 0, "the dog barks", 30),
		testUtterance("Brown", "adam01.cha", 1, "my ball", models.AgeUnknown),
	}
	if err := c.AddUtterances(ctx, utterances); err != nil {
		t.Fatal(err)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Utterances != 2 || status.Indexed != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.WithAge != 1 {
		t.Errorf("WithAge = %d, want 1", status.WithAge)
	}
}
