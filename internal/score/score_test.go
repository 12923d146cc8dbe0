package score

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluatePerfect(t *testing.T) {
	gold := []string{"1yo", "2yo", "3yo"}
	m, err := Evaluate(gold, gold)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if m.N != 3 {
		t.Errorf("N = %d, want 3", m.N)
	}
	if m.ExactAccuracy != 100 || m.Within1Accuracy != 100 || m.MacroRecall != 100 {
		t.Errorf("perfect run scored %+v", m)
	}
	if m.MAEBins != 0 || m.MAEMonths != 0 {
		t.Errorf("perfect run has nonzero error: %+v", m)
	}
}

func TestEvaluateHandChecked(t *testing.T) {
	gold := []string{"0yo", "0yo", "1yo", "2yo", "6yo_plus"}
	pred := []string{"0yo", "1yo", "1yo", "4yo", "UNK"}
	m, err := Evaluate(gold, pred)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !almostEqual(m.ExactAccuracy, 40) {
		t.Errorf("ExactAccuracy = %v, want 40", m.ExactAccuracy)
	}
	if !almostEqual(m.Within1Accuracy, 60) {
		t.Errorf("Within1Accuracy = %v, want 60", m.Within1Accuracy)
	}
	if !almostEqual(m.MacroRecall, 37.5) {
		t.Errorf("MacroRecall = %v, want 37.5", m.MacroRecall)
	}
	if !almostEqual(m.MAEBins, 0.6) {
		t.Errorf("MAEBins = %v, want 0.6", m.MAEBins)
	}
	if !almostEqual(m.MAEMonths, 22.8) {
		t.Errorf("MAEMonths = %v, want 22.8", m.MAEMonths)
	}
}

func TestEvaluateUnknownGold(t *testing.T) {
	gold := []string{"UNK", "1yo", "1yo"}
	pred := []string{"UNK", "1yo", "2yo"}
	m, err := Evaluate(gold, pred)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !almostEqual(m.ExactAccuracy, 200.0/3) {
		t.Errorf("ExactAccuracy = %v, want %v", m.ExactAccuracy, 200.0/3)
	}
	if !almostEqual(m.Within1Accuracy, 200.0/3) {
		t.Errorf("Within1Accuracy = %v, want %v", m.Within1Accuracy, 200.0/3)
	}
	if !almostEqual(m.MacroRecall, 75) {
		t.Errorf("MacroRecall = %v, want 75", m.MacroRecall)
	}
	if !almostEqual(m.MAEBins, 1.0/3) {
		t.Errorf("MAEBins = %v, want %v", m.MAEBins, 1.0/3)
	}
	if !almostEqual(m.MAEMonths, 4) {
		t.Errorf("MAEMonths = %v, want 4", m.MAEMonths)
	}
}

func TestEvaluateLengthMismatch(t *testing.T) {
	_, err := Evaluate([]string{"1yo", "2yo"}, []string{"1yo"})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("error = %v, want ErrLengthMismatch", err)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	if _, err := Evaluate(nil, nil); err == nil {
		t.Error("expected an error for empty input")
	}
}

func TestLabelExtraction(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		line string
		want string
	}{
		{"gold last field", GoldLabel, "word_count=3,has_the,2yo", "2yo"},
		{"gold bare label", GoldLabel, "2yo", "2yo"},
		{"gold trims whitespace", GoldLabel, "  a,b  ", "b"},
		{"gold with utter", GoldLabel, "utter=go<COMMA> now,word_count=2,1yo", "1yo"},
		{"pred first field", PredictedLabel, "2yo 0yo:0.1 2yo:0.9", "2yo"},
		{"pred bare label", PredictedLabel, "3yo", "3yo"},
		{"pred trims whitespace", PredictedLabel, "  4yo  ", "4yo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.line); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteReport(t *testing.T) {
	gold := []string{"0yo", "0yo", "1yo", "2yo", "6yo_plus"}
	pred := []string{"0yo", "1yo", "1yo", "4yo", "UNK"}
	m, err := Evaluate(gold, pred)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	var buf bytes.Buffer
	WriteReport(&buf, m)

	want := strings.Join([]string{
		"==================================================",
		"EVALUATION METRICS",
		"==================================================",
		"Exact Accuracy:       40.00%",
		"Within-1-Bin Acc:     60.00%",
		"Macro Recall:         37.50%",
		"MAE (bins):           0.600",
		"MAE (months):         22.80",
		"==================================================",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("report mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	m := &Metrics{N: 2, ExactAccuracy: 50}
	if err := WriteJSON(&buf, m); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	out := buf.String()
	for _, key := range []string{`"n": 2`, `"exact_accuracy": 50`, `"mae_months": 0`} {
		if !strings.Contains(out, key) {
			t.Errorf("JSON output missing %q:\n%s", key, out)
		}
	}
}

func TestWriteExamples(t *testing.T) {
	goldLines := []string{
		"word_count=2,utter=go home,1yo",
		"word_count=1,2yo",
		"word_count=3,utter=I<COMMA> go,3yo",
	}
	pred := []string{"1yo", "2yo", "0yo"}

	var buf bytes.Buffer
	WriteExamples(&buf, goldLines, pred, 10)
	out := buf.String()

	if !strings.Contains(out, "SAMPLE PREDICTIONS (gold -> predicted):") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, `"go home"`) {
		t.Errorf("missing first utterance:\n%s", out)
	}
	if !strings.Contains(out, `"I, go"`) {
		t.Errorf("comma not unescaped:\n%s", out)
	}
	if !strings.Contains(out, "GOLD=3yo") || !strings.Contains(out, "PRED=0yo") {
		t.Errorf("missing labels for third line:\n%s", out)
	}
	if strings.Contains(out, "GOLD=2yo") {
		t.Errorf("line without utter token should be skipped:\n%s", out)
	}

	buf.Reset()
	WriteExamples(&buf, goldLines, pred, 1)
	if strings.Contains(buf.String(), `"I, go"`) {
		t.Errorf("max=1 should stop after the first shown example:\n%s", buf.String())
	}
}

func TestEvaluateFiles(t *testing.T) {
	dir := t.TempDir()
	goldPath := filepath.Join(dir, "events")
	predPath := filepath.Join(dir, "preds")
	goldData := "word_count=2,1yo\nword_count=5,3yo\n"
	predData := "1yo 1yo:0.8 3yo:0.2\n2yo 2yo:0.6 3yo:0.4\n"
	if err := os.WriteFile(goldPath, []byte(goldData), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(predPath, []byte(predData), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := EvaluateFiles(goldPath, predPath)
	if err != nil {
		t.Fatalf("EvaluateFiles failed: %v", err)
	}
	if m.N != 2 {
		t.Errorf("N = %d, want 2", m.N)
	}
	if !almostEqual(m.ExactAccuracy, 50) {
		t.Errorf("ExactAccuracy = %v, want 50", m.ExactAccuracy)
	}
}
