package eval

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var reportColumns = []string{
	"config", "type", "groups_included", "runs",
	"accuracy", "within_1_acc", "mae_bins", "mae_months",
}

func formatRow(res Result) []string {
	return []string{
		res.Config,
		res.Type,
		res.Groups,
		strconv.Itoa(res.Runs),
		fmt.Sprintf("%.2f", res.Metrics.ExactAccuracy),
		fmt.Sprintf("%.2f", res.Metrics.Within1Accuracy),
		fmt.Sprintf("%.3f", res.Metrics.MAEBins),
		fmt.Sprintf("%.2f", res.Metrics.MAEMonths),
	}
}

// WriteTSV writes results as a tab-separated table, one row per config.
func WriteTSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(reportColumns); err != nil {
		return err
	}
	for _, res := range results {
		if err := cw.Write(formatRow(res)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTSVFile writes the TSV report to path, creating parent directories.
func WriteTSVFile(path string, results []Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return WriteTSV(f, results)
}

// WriteXLSX writes results as a workbook with one sheet per experiment
// family, in the order families first appear.
func WriteXLSX(path string, results []Result) error {
	f := excelize.NewFile()
	defer f.Close()

	nextRow := make(map[string]int)
	first := true
	for _, res := range results {
		if _, ok := nextRow[res.Type]; !ok {
			if first {
				if err := f.SetSheetName("Sheet1", res.Type); err != nil {
					return err
				}
				first = false
			} else {
				if _, err := f.NewSheet(res.Type); err != nil {
					return err
				}
			}
			if err := writeSheetRow(f, res.Type, 1, reportColumns); err != nil {
				return err
			}
			nextRow[res.Type] = 2
		}
		if err := writeSheetRow(f, res.Type, nextRow[res.Type], formatRow(res)); err != nil {
			return err
		}
		nextRow[res.Type]++
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return f.SaveAs(path)
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
