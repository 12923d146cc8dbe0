// Package e2e exercises the full pipeline, from raw CHAT transcripts on disk
// to a trained model and scored predictions, against a synthetic corpus.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Transcript is one synthetic CHAT file: the corpus directory it lives in,
// its file name, the target child's age in CHAT "Y;MM.DD" form, and the
// child utterance lines. An empty Age renders an @ID header with no age
// field.
type Transcript struct {
	Corpus     string
	File       string
	Age        string
	Utterances []string
}

// Corpus holds the synthetic transcripts plus the totals e2e assertions
// check ingestion against. TotalUtterances counts child lines only; the
// interleaved mother lines are there for the parser to skip.
type Corpus struct {
	Transcripts     []Transcript
	TotalFiles      int
	TotalUtterances int
	TotalWithAge    int
}

const filesPerGroup = 6

// youngUtterances are typical of a child around eighteen months: one to
// three words, barely any function words.
var youngUtterances = []string{
	"ball .",
	"mommy ball .",
	"doggie go [= points] .",
	"more juice .",
	"xxx ball .",
	"baby up .",
	"no ball .",
	"kitty sleep .",
	"daddy bye .",
	"go car .",
	"my cup .",
	"want that .",
}

// oldUtterances are typical of a child around three and a half years: full
// sentences with pronouns, auxiliaries, and conjunctions.
var oldUtterances = []string{
	"I want to go outside because the dog is hungry .",
	"&-um the little boy is running in the garden right now .",
	"we played with the blocks <and then> [//] and then mommy helped us .",
	"can you put the red ball under the table please ?",
	"I don't want to eat the green beans for dinner .",
	"when the rain stops we can go to the park .",
	"she was looking for her shoes in the closet .",
	"the cat jumped over the fence and ran away fast .",
	"I think that the baby wants his bottle right now .",
	"daddy is making pancakes for breakfast this morning .",
	"my brother took the biggest cookie from the blue plate .",
	"if you help me clean up we can play outside .",
}

// BuildCorpus returns a deterministic transcript set spread over two corpus
// directories: six files per age group, plus one file whose target child
// has no recorded age. The eighteen-month and forty-two-month groups are
// far enough apart that a model trained on one split should separate them
// cleanly on another. The no-age file carries the word "quokka", which
// appears nowhere else, so search tests can assert an exact hit.
func BuildCorpus() *Corpus {
	corpora := []string{"clark", "brown"}
	var transcripts []Transcript
	for i := 0; i < filesPerGroup; i++ {
		transcripts = append(transcripts,
			Transcript{
				Corpus:     corpora[i%len(corpora)],
				File:       fmt.Sprintf("young%02d.cha", i+1),
				Age:        "1;06.00",
				Utterances: rotated(youngUtterances, i),
			},
			Transcript{
				Corpus:     corpora[i%len(corpora)],
				File:       fmt.Sprintf("old%02d.cha", i+1),
				Age:        "3;06.00",
				Utterances: rotated(oldUtterances, i),
			})
	}
	transcripts = append(transcripts, Transcript{
		Corpus: "clark",
		File:   "noage01.cha",
		Utterances: []string{
			"the quokka waved goodbye .",
			"we saw it at the zoo yesterday .",
		},
	})

	total, withAge := 0, 0
	for _, tr := range transcripts {
		total += len(tr.Utterances)
		if tr.Age != "" {
			withAge += len(tr.Utterances)
		}
	}
	return &Corpus{
		Transcripts:     transcripts,
		TotalFiles:      len(transcripts),
		TotalUtterances: total,
		TotalWithAge:    withAge,
	}
}

// rotated returns pool shifted left by n so each file carries a distinct
// ordering of the same material.
func rotated(pool []string, n int) []string {
	n = n % len(pool)
	out := make([]string, 0, len(pool))
	out = append(out, pool[n:]...)
	out = append(out, pool[:n]...)
	return out
}

// CHAT renders the transcript in CHAT format. A mother line follows every
// child line so the parser always has non-target speech to skip.
func (t Transcript) CHAT() string {
	var b strings.Builder
	b.WriteString("@UTF8\n")
	b.WriteString("@Begin\n")
	b.WriteString("@Languages:\teng\n")
	b.WriteString("@Participants:\tCHI Target_Child , MOT Mother\n")
	fmt.Fprintf(&b, "@ID:\teng|%s|CHI|%s|female|||Target_Child|||\n", t.Corpus, t.Age)
	fmt.Fprintf(&b, "@ID:\teng|%s|MOT|||||Mother|||\n", t.Corpus)
	for _, u := range t.Utterances {
		fmt.Fprintf(&b, "*CHI:\t%s\n", u)
		b.WriteString("*MOT:\tthat is right sweetie .\n")
	}
	b.WriteString("@End\n")
	return b.String()
}

// WriteFiles writes every transcript under root as <corpus>/<file> so a
// directory ingest derives each corpus name from the parent directory.
func (c *Corpus) WriteFiles(root string) error {
	for _, tr := range c.Transcripts {
		dir := filepath.Join(root, tr.Corpus)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, tr.File)
		if err := os.WriteFile(path, []byte(tr.CHAT()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
