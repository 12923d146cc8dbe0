package features

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kidtalk/agelab/internal/agebin"
	"github.com/kidtalk/agelab/internal/models"
)

// commaEscape stands in for a comma inside a feature value, since commas
// separate the tokens of an event line.
const commaEscape = "<COMMA>"

// EncodeLine renders one event as a line of the events format: comma-joined
// feature tokens, the optional utter= text token, and the label last.
func EncodeLine(ev models.Event) string {
	parts := make([]string, 0, len(ev.Tokens)+2)
	for _, tok := range ev.Tokens {
		parts = append(parts, escapeToken(tok))
	}
	if ev.Text != "" {
		parts = append(parts, "utter="+strings.ReplaceAll(ev.Text, ",", commaEscape))
	}
	label := ev.Label
	if label == "" {
		label = agebin.Unknown
	}
	return strings.Join(parts, ",") + "\n"
}

// DecodeLine parses one event line. The last comma field is the label; an
// utter= token is lifted out of the feature list into Text.
func DecodeLine(line string) models.Event {
	parts := strings.Split(line, ",")
	ev := models.Event{Label: parts[len(parts)-1]}
	for _, p := range parts[:len(parts)-1] {
		if v, ok := strings.CutPrefix(p, "utter="); ok {
			ev.Text = strings.ReplaceAll(v, commaEscape, ",")
			continue
		}
		ev.Tokens = append(ev.Tokens, unescapeToken(p))
	}
	return ev
}

// ReadEvents parses an events stream, one event per non-blank line.
func ReadEvents(r io.Reader) ([]models.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var events []models.Event
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		events = append(events, DecodeLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// WriteEvents writes events in the line format.
func WriteEvents(w io.Writer, events []models.Event) error {
	bw := bufio.NewWriter(w)
	for _, ev := range events {
		if _, err := bw.WriteString(EncodeLine(ev)); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// ReadEventsFile loads an events file.
func ReadEventsFile(path string) ([]models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening events file: %w", err)
	}
	defer f.Close()
	return ReadEvents(f)
}

// WriteEventsFile writes an events file.
func WriteEventsFile(path string, events []models.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating events file: %w", err)
	}
	defer f.Close()
	return WriteEvents(f, events)
}

func escapeToken(tok string) string {
	key, value, ok := strings.Cut(tok, "=")
	if !ok {
		return tok
	}
	return key + "=" + strings.ReplaceAll(value, ",", commaEscape)
}

func unescapeToken(tok string) string {
	key, value, ok := strings.Cut(tok, "=")
	if !ok {
		return tok
	}
	return key + "=" + strings.ReplaceAll(value, commaEscape, ",")
}
