// Package cli provides output helpers for the agelab command line tools.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kidtalk/agelab/internal/agebin"
	"github.com/kidtalk/agelab/internal/corpus"
	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/pkg/utils"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other tools.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms for %q\n\n",
		response.Total, response.QueryTime, response.Query)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	u := result.Utterance
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", result.Rank, result.Score)
	fmt.Fprintf(w, "File: %s | Speaker: %s", u.File, u.Speaker)
	if u.AgeMonths != models.AgeUnknown {
		fmt.Fprintf(w, " | Age: %.0f months", u.AgeMonths)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(u.Clean, 200))
	fmt.Fprintln(w)
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// FormatPrediction renders one prediction line: the predicted label first,
// then one label:probability pair per bin in label order. Downstream
// scoring reads the first space-separated field as the prediction.
func FormatPrediction(p *models.Prediction, labels []string) string {
	var b strings.Builder
	b.WriteString(p.Label)
	for i, label := range labels {
		fmt.Fprintf(&b, " %s:%.6f", label, p.Scores[i])
	}
	return b.String()
}

// WriteStatus writes corpus status to w in the given format.
func WriteStatus(w io.Writer, status *corpus.Status, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	default:
		writeStatusText(w, status)
		return nil
	}
}

func writeStatusText(w io.Writer, status *corpus.Status) {
	fmt.Fprintf(w, "Utterances: %d\n", status.Utterances)
	fmt.Fprintf(w, "Files:      %d\n", status.Files)
	fmt.Fprintf(w, "Corpora:    %d\n", status.Corpora)
	fmt.Fprintf(w, "With age:   %d\n", status.WithAge)
	fmt.Fprintf(w, "Indexed:    %d\n", status.Indexed)
	fmt.Fprintf(w, "Splits:     train=%d dev=%d test=%d\n",
		status.Splits.Train, status.Splits.Dev, status.Splits.Test)
	if len(status.Bins) > 0 {
		parts := make([]string, 0, len(status.Bins))
		for _, label := range agebin.Labels {
			if n := status.Bins[label]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", label, n))
			}
		}
		if n := status.Bins[agebin.Unknown]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", agebin.Unknown, n))
		}
		fmt.Fprintf(w, "Bins:       %s\n", strings.Join(parts, " "))
	}
}
