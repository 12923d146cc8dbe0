package eval

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kidtalk/agelab/internal/score"
)

func sampleResults() []Result {
	return []Result{
		{
			Config: "lexical_only",
			Type:   "additive",
			Groups: "lexical_length",
			Runs:   1,
			Metrics: score.Metrics{
				ExactAccuracy:   45.5,
				Within1Accuracy: 80,
				MAEBins:         0.7,
				MAEMonths:       12.3,
			},
		},
		{
			Config: "full_extended",
			Type:   "additive",
			Groups: "extended_syntax,lexical_length",
			Runs:   3,
			Metrics: score.Metrics{
				ExactAccuracy:   50,
				Within1Accuracy: 85.25,
				MAEBins:         0.65,
				MAEMonths:       11,
			},
		},
		{
			Config: "full_minus_lexical",
			Type:   "ablation",
			Groups: "extended_syntax",
			Runs:   3,
			Metrics: score.Metrics{
				ExactAccuracy:   30.125,
				Within1Accuracy: 60.5,
				MAEBins:         1.2345,
				MAEMonths:       20.456,
			},
		},
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteTSV failed: %v", err)
	}

	want := strings.Join([]string{
		"config\ttype\tgroups_included\truns\taccuracy\twithin_1_acc\tmae_bins\tmae_months",
		"lexical_only\tadditive\tlexical_length\t1\t45.50\t80.00\t0.700\t12.30",
		"full_extended\tadditive\textended_syntax,lexical_length\t3\t50.00\t85.25\t0.650\t11.00",
		"full_minus_lexical\tablation\textended_syntax\t3\t30.13\t60.50\t1.234\t20.46",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("TSV mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteTSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "feature_impact.tsv")
	if err := WriteTSVFile(path, sampleResults()); err != nil {
		t.Fatalf("WriteTSVFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.HasPrefix(string(data), "config\ttype\t") {
		t.Errorf("report does not start with the header: %q", string(data[:40]))
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feature_impact.xlsx")
	if err := WriteXLSX(path, sampleResults()); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("sheets = %v, want one per family", sheets)
	}
	for _, name := range []string{"additive", "ablation"} {
		found := false
		for _, s := range sheets {
			if s == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing sheet %s in %v", name, sheets)
		}
	}

	rows, err := f.GetRows("additive")
	if err != nil {
		t.Fatalf("reading additive sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("additive sheet has %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "config" || rows[0][7] != "mae_months" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "lexical_only" || rows[1][4] != "45.50" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][0] != "full_extended" || rows[2][6] != "0.650" {
		t.Errorf("second data row = %v", rows[2])
	}

	ablation, err := f.GetRows("ablation")
	if err != nil {
		t.Fatalf("reading ablation sheet: %v", err)
	}
	if len(ablation) != 2 || ablation[1][0] != "full_minus_lexical" {
		t.Errorf("ablation sheet rows = %v", ablation)
	}
}
