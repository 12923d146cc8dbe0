// Package chat parses CHILDES CHAT (.cha) transcripts into utterance records.
// Only utterances spoken by a target child identified in the @ID headers are
// kept; everything else in a transcript is ignored.
package chat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kidtalk/agelab/internal/models"
)

var utteranceRe = regexp.MustCompile(`^\*(\w+):\s*(.*)`)

// AgeToMonths converts the CHAT age format "Y;MM.DD" to months. The day part
// is ignored. Malformed input yields models.AgeUnknown.
func AgeToMonths(age string) float64 {
	years, rest, ok := strings.Cut(age, ";")
	if !ok {
		return models.AgeUnknown
	}
	monthPart, _, _ := strings.Cut(rest, ".")
	y, err := strconv.Atoi(strings.TrimSpace(years))
	if err != nil {
		return models.AgeUnknown
	}
	m, err := strconv.Atoi(strings.TrimSpace(monthPart))
	if err != nil {
		return models.AgeUnknown
	}
	return float64(y*12 + m)
}

// speakerAges maps speaker codes to ages by reading @ID header lines.
// A speaker enters the map only when its role marks a target child; a
// missing or malformed age comes out as models.AgeUnknown.
func speakerAges(lines []string) map[string]float64 {
	ages := make(map[string]float64)
	for _, raw := range lines {
		line := strings.ReplaceAll(strings.TrimSpace(raw), "﻿", "")
		if !strings.HasPrefix(line, "@ID:") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 5 {
			continue
		}
		speaker := strings.TrimSpace(parts[2])
		ageStr := strings.TrimSpace(parts[3])
		role := ""
		if len(parts) > 7 {
			role = strings.TrimSpace(parts[7])
		}
		if strings.Contains(role, "Target_Child") {
			ages[speaker] = AgeToMonths(ageStr)
		}
	}
	return ages
}

// Parse reads one CHAT transcript and returns the target-child utterances.
// A transcript with no target child yields an empty slice, not an error.
func Parse(r io.Reader, corpus, file string) ([]*models.Utterance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript %s: %w", file, err)
	}

	ages := speakerAges(lines)

	var utterances []*models.Utterance
	for _, raw := range lines {
		if !strings.HasPrefix(raw, "*") {
			continue
		}
		m := utteranceRe.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		speaker := m[1]
		age, ok := ages[speaker]
		if !ok {
			continue
		}
		utterances = append(utterances, &models.Utterance{
			Corpus:    corpus,
			File:      file,
			Speaker:   speaker,
			AgeMonths: age,
			Raw:       strings.TrimSpace(m[2]),
		})
	}
	return utterances, nil
}

// ParseFile parses the transcript at path, using the file's base name as the
// file field on each utterance.
func ParseFile(path, corpus string) ([]*models.Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()
	return Parse(f, corpus, filepath.Base(path))
}
