package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/kidtalk/agelab/internal/models"
)

// ExportCSV writes utterances to a CSV file with a header row, creating
// parent directories.
func ExportCSV(path string, utterances []*models.Utterance) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	return gocsv.MarshalFile(&utterances, f)
}

// ImportCSV reads utterances from a CSV file written by ExportCSV.
func ImportCSV(path string) ([]*models.Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	utterances := []*models.Utterance{}
	if err := gocsv.UnmarshalFile(f, &utterances); err != nil {
		return nil, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	return utterances, nil
}
