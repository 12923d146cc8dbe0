package postag

import (
	"strings"
	"unicode"
)

// closedClass maps closed-class words straight to their tag.
var closedClass = map[string]string{
	// determiners
	"the": "DET", "a": "DET", "an": "DET", "this": "DET", "that": "DET",
	"these": "DET", "those": "DET", "no": "DET",
	// pronouns
	"i": "PRON", "you": "PRON", "he": "PRON", "she": "PRON", "it": "PRON",
	"we": "PRON", "they": "PRON", "me": "PRON", "him": "PRON", "her": "PRON",
	"us": "PRON", "them": "PRON", "my": "PRON", "your": "PRON", "his": "PRON",
	"its": "PRON", "our": "PRON", "their": "PRON", "what": "PRON", "who": "PRON",
	// prepositions
	"in": "ADP", "on": "ADP", "at": "ADP", "to": "ADP", "of": "ADP",
	"with": "ADP", "for": "ADP", "from": "ADP", "by": "ADP", "up": "ADP",
	"down": "ADP",
	// conjunctions
	"and": "CONJ", "but": "CONJ", "or": "CONJ", "because": "CONJ",
	"if": "CONJ", "when": "CONJ", "so": "CONJ",
	// auxiliaries and copulas
	"is": "AUX", "are": "AUX", "was": "AUX", "were": "AUX", "am": "AUX",
	"be": "AUX", "been": "AUX", "do": "AUX", "does": "AUX", "did": "AUX",
	"have": "AUX", "has": "AUX", "had": "AUX", "can": "AUX", "could": "AUX",
	"will": "AUX", "would": "AUX", "don't": "AUX",
	// adverbs
	"not": "ADV", "where": "ADV", "why": "ADV", "how": "ADV",
	"here": "ADV", "there": "ADV", "now": "ADV", "very": "ADV",
	// unintelligible markers
	"xxx": "X", "yyy": "X",
}

// RuleTagger tags with a closed-class lexicon plus suffix heuristics over
// the universal tag set. It is always available and is the default tagger.
type RuleTagger struct{}

// NewRuleTagger returns the lexicon-and-suffix tagger.
func NewRuleTagger() *RuleTagger {
	return &RuleTagger{}
}

// Tag assigns one tag per token. Tokens are matched lowercase.
func (t *RuleTagger) Tag(tokens []string) []TaggedToken {
	tagged := make([]TaggedToken, len(tokens))
	for i, tok := range tokens {
		tagged[i] = TaggedToken{Token: tok, Tag: tagToken(strings.ToLower(tok))}
	}
	return tagged
}

// Available always reports true.
func (t *RuleTagger) Available() bool {
	return true
}

func tagToken(tok string) string {
	if tag, ok := closedClass[tok]; ok {
		return tag
	}
	if isNumeric(tok) {
		return "NUM"
	}
	switch {
	case strings.HasSuffix(tok, "ing") && len(tok) >= 5:
		return "VERB"
	case strings.HasSuffix(tok, "ed") && len(tok) >= 4:
		return "VERB"
	case strings.HasSuffix(tok, "ly") && len(tok) >= 4:
		return "ADV"
	case strings.HasSuffix(tok, "est") && len(tok) >= 5:
		return "ADJ"
	case strings.HasSuffix(tok, "er") && len(tok) >= 4:
		return "ADJ"
	}
	// Open-class default: child speech is noun-heavy.
	return "NOUN"
}

func isNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
