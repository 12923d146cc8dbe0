// Package clean normalizes raw CHAT utterance text for feature extraction.
// It strips transcription annotations while keeping the unintelligible
// markers (xxx, yyy) that feed intelligibility features downstream.
package clean

import (
	"regexp"
	"strings"
)

// rules run in order; each pattern is removed from the text.
var rules = []*regexp.Regexp{
	regexp.MustCompile(`\[.*?\]`),   // [brackets]
	regexp.MustCompile(`\(.*?\)`),   // (parentheses)
	regexp.MustCompile(`<.*?>`),     // <angle brackets>
	regexp.MustCompile(`&-\w+`),     // fillers: &-uh, &-um
	regexp.MustCompile(`\+\.\.\.`),  // trailing-off marker
	regexp.MustCompile(`@\w+`),      // form markers: @o, @b
}

var (
	spaceRe = regexp.MustCompile(`\s+`)
	alignRe = regexp.MustCompile(`[\x00-\x1F]*\d+_\d+[\x00-\x1F]*`) // time-alignment spans
)

var terminators = map[string]bool{".": true, "?": true, "!": true}

// Cleaner applies the annotation-stripping pipeline and the length filter.
type Cleaner struct {
	MinWords int
}

// New returns a Cleaner keeping utterances with at least minWords tokens.
func New(minWords int) *Cleaner {
	return &Cleaner{MinWords: minWords}
}

// Clean strips annotations from one utterance. Order matters: the
// whitespace collapse runs before alignment-span removal, and the final
// token join renormalizes any spacing the removals left behind.
func (c *Cleaner) Clean(text string) string {
	for _, re := range rules {
		text = re.ReplaceAllString(text, "")
	}
	text = spaceRe.ReplaceAllString(text, " ")
	text = alignRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	tokens := strings.Fields(text)
	if len(tokens) > 0 && terminators[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// Keep reports whether a cleaned utterance survives the length filter.
func (c *Cleaner) Keep(cleaned string) bool {
	if cleaned == "" {
		return false
	}
	return len(strings.Fields(cleaned)) >= c.MinWords
}

// WordCount returns the whitespace token count of a cleaned utterance.
func WordCount(cleaned string) int {
	return len(strings.Fields(cleaned))
}
