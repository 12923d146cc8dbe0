// Package score computes evaluation metrics for predicted age bins against
// gold-labeled event files: exact accuracy, within-one-bin accuracy,
// macro-averaged recall, and mean absolute error in bins and in months.
package score

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/kidtalk/agelab/internal/agebin"
	"github.com/kidtalk/agelab/internal/features"
)

// ErrLengthMismatch means the gold and prediction inputs do not align
// line-for-line.
var ErrLengthMismatch = errors.New("gold and predicted label counts differ")

// Metrics holds the scores of one evaluation. Accuracies and recall are
// percentages; the error metrics are means over all scored pairs.
type Metrics struct {
	N               int     `json:"n"`
	ExactAccuracy   float64 `json:"exact_accuracy"`
	Within1Accuracy float64 `json:"within_1_accuracy"`
	MacroRecall     float64 `json:"macro_recall"`
	MAEBins         float64 `json:"mae_bins"`
	MAEMonths       float64 `json:"mae_months"`
}

// GoldLabel extracts the gold label, the last comma-separated field, from an
// event line.
func GoldLabel(line string) string {
	fields := strings.Split(strings.TrimSpace(line), ",")
	return fields[len(fields)-1]
}

// PredictedLabel extracts the predicted label, the first space-separated
// field, from a prediction line.
func PredictedLabel(line string) string {
	trimmed := strings.TrimSpace(line)
	if i := strings.IndexByte(trimmed, ' '); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// GoldLabels maps event lines to their gold labels.
func GoldLabels(lines []string) []string {
	labels := make([]string, len(lines))
	for i, line := range lines {
		labels[i] = GoldLabel(line)
	}
	return labels
}

// PredictedLabels maps prediction lines to their predicted labels.
func PredictedLabels(lines []string) []string {
	labels := make([]string, len(lines))
	for i, line := range lines {
		labels[i] = PredictedLabel(line)
	}
	return labels
}

// Evaluate scores predicted labels against gold labels. The slices must
// align line-for-line; a length mismatch is an error, never a silent
// truncation.
//
// Pairs where either bin is unknown are excluded from the within-one-bin
// and bin-error numerators but still divide into the mean. Month error uses
// bin midpoints, with unknown bins at zero months.
func Evaluate(gold, predicted []string) (*Metrics, error) {
	if len(gold) != len(predicted) {
		return nil, fmt.Errorf("%w: %d gold, %d predicted", ErrLengthMismatch, len(gold), len(predicted))
	}
	if len(gold) == 0 {
		return nil, errors.New("no labels to score")
	}

	n := float64(len(gold))
	var correct, within1, binErrSum int
	var monthErrSum float64
	goldCounts := make(map[string]int)
	truePositives := make(map[string]int)

	for i := range gold {
		g, p := gold[i], predicted[i]
		goldCounts[g]++
		if g == p {
			correct++
			truePositives[g]++
		}
		gi, gok := agebin.Index(g)
		pi, pok := agebin.Index(p)
		if gok && pok {
			d := gi - pi
			if d < 0 {
				d = -d
			}
			if d <= 1 {
				within1++
			}
			binErrSum += d
		}
		gm, _ := agebin.Midpoint(g)
		pm, _ := agebin.Midpoint(p)
		monthErrSum += math.Abs(gm - pm)
	}

	var recallSum float64
	for label, count := range goldCounts {
		recallSum += float64(truePositives[label]) / float64(count)
	}
	macroRecall := recallSum / float64(len(goldCounts)) * 100

	return &Metrics{
		N:               len(gold),
		ExactAccuracy:   float64(correct) / n * 100,
		Within1Accuracy: float64(within1) / n * 100,
		MacroRecall:     macroRecall,
		MAEBins:         float64(binErrSum) / n,
		MAEMonths:       monthErrSum / n,
	}, nil
}

// EvaluateFiles scores a predictions file against a gold event file.
func EvaluateFiles(goldPath, predPath string) (*Metrics, error) {
	goldLines, err := ReadLines(goldPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read gold file: %w", err)
	}
	predLines, err := ReadLines(predPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions file: %w", err)
	}
	return Evaluate(GoldLabels(goldLines), PredictedLabels(predLines))
}

// WriteReport writes the fixed-width text report.
func WriteReport(w io.Writer, m *Metrics) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "EVALUATION METRICS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Exact Accuracy:       %.2f%%\n", m.ExactAccuracy)
	fmt.Fprintf(w, "Within-1-Bin Acc:     %.2f%%\n", m.Within1Accuracy)
	fmt.Fprintf(w, "Macro Recall:         %.2f%%\n", m.MacroRecall)
	fmt.Fprintf(w, "MAE (bins):           %.3f\n", m.MAEBins)
	fmt.Fprintf(w, "MAE (months):         %.2f\n", m.MAEMonths)
	fmt.Fprintln(w, rule)
}

// WriteJSON writes the metrics as indented JSON.
func WriteJSON(w io.Writer, m *Metrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteExamples prints up to max gold/predicted pairs alongside the original
// utterance recovered from the event line's utter token. Lines without one
// are skipped and do not count toward max.
func WriteExamples(w io.Writer, goldLines, predicted []string, max int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SAMPLE PREDICTIONS (gold -> predicted):")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	shown := 0
	for i, line := range goldLines {
		if i >= len(predicted) || shown >= max {
			break
		}
		ev := features.DecodeLine(line)
		if ev.Text == "" {
			continue
		}
		fmt.Fprintf(w, "%-40s  GOLD=%-6s  PRED=%-6s\n",
			`"`+ev.Text+`"`, GoldLabel(line), predicted[i])
		shown++
	}
}

// ReadLines reads whitespace-trimmed lines from a file.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLinesFrom(f)
}

// ReadLinesFrom reads whitespace-trimmed lines from a reader, stdin
// included.
func ReadLinesFrom(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	return lines, scanner.Err()
}
