// Package features turns cleaned utterance text into named feature tokens,
// the events interchange format shared by the trainer, the scorer, and the
// ablation harness. Extraction is a pure function of the text: identical
// input always yields the identical token sequence.
package features

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/agebin"
	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/internal/postag"
)

// Options selects which feature families the extractor emits. The values a
// model was trained with are stored in its artifact so apply-time extraction
// matches.
type Options struct {
	Extended bool `json:"extended" yaml:"extended"`
	POS      bool `json:"pos" yaml:"pos"`
}

// Extractor computes feature tokens for one utterance at a time.
type Extractor struct {
	opts   Options
	tagger postag.Tagger
	logger *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTagger sets the POS tagger. Without one, POS features are omitted.
func WithTagger(t postag.Tagger) Option {
	return func(e *Extractor) { e.tagger = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an Extractor. The default tagger is the null tagger, so POS
// features stay off unless a real tagger is supplied.
func New(opts Options, options ...Option) *Extractor {
	e := &Extractor{
		opts:   opts,
		tagger: postag.NewNullTagger(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger.Debug("extractor ready",
		zap.Bool("extended", opts.Extended),
		zap.Bool("pos", opts.POS),
		zap.Bool("tagger_available", e.tagger.Available()))
	return e
}

// Options returns the option set the extractor was built with.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract returns the ordered feature tokens for one cleaned utterance.
// An empty utterance yields zero-valued counts and ratios, never an error.
func (e *Extractor) Extract(text string) []string {
	tokens := strings.Fields(text)
	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
	}
	n := len(tokens)

	unique := make(map[string]bool, n)
	for _, t := range lower {
		unique[t] = true
	}

	feats := make([]string, 0, 4*n+24)

	// Lexical / length
	feats = append(feats,
		"word_count="+strconv.Itoa(n),
		"unique_words="+strconv.Itoa(len(unique)),
		"ttr="+formatFloat(ratio(float64(len(unique)), float64(n))),
	)
	if n > 0 {
		feats = append(feats, "first_word="+lower[0], "last_word="+lower[n-1])
	}
	feats = append(feats, "char_len="+strconv.Itoa(utf8.RuneCountInString(text)))

	// Function words
	fwCount := 0
	fwTypes := make(map[string]bool)
	for _, t := range lower {
		if IsFunctionWord(t) {
			fwCount++
			fwTypes[t] = true
		}
	}
	for _, fw := range FunctionWords {
		if fwTypes[fw] {
			feats = append(feats, "has_"+fw)
		}
	}
	feats = append(feats,
		"function_word_count="+strconv.Itoa(fwCount),
		"function_word_prop="+formatFloat(ratio(float64(fwCount), float64(n))),
		"function_word_types="+strconv.Itoa(len(fwTypes)),
		"content_to_function_ratio="+formatFloat(ratio(float64(n-fwCount), float64(fwCount))),
	)

	// Morphology
	morphTotal := 0
	var hasIng, hasEd, hasS, hasPoss bool
	for _, t := range lower {
		count, pattern := morphemes(t)
		morphTotal += count
		switch pattern {
		case "ing":
			hasIng = true
		case "ed":
			hasEd = true
		case "s":
			hasS = true
		case "possessive":
			hasPoss = true
		}
	}
	feats = append(feats,
		"mlu_words="+strconv.Itoa(n),
		"morpheme_count="+strconv.Itoa(morphTotal),
		"mlu_morphemes="+formatFloat(ratio(float64(morphTotal), float64(n))),
	)
	if hasIng {
		feats = append(feats, "has_ing")
	}
	if hasEd {
		feats = append(feats, "has_ed")
	}
	if hasS {
		feats = append(feats, "has_3sg_or_plural")
	}
	if hasPoss {
		feats = append(feats, "has_possessive")
	}

	// Intelligibility
	unintCount := 0
	for _, t := range lower {
		if unintelligibleTokens[t] {
			unintCount++
		}
	}
	unintProp := ratio(float64(unintCount), float64(n))
	feats = append(feats,
		"unintelligible_count="+strconv.Itoa(unintCount),
		"unintelligible_prop="+formatFloat(unintProp),
		"unintelligible_bin="+intelligibilityBin(unintProp),
	)
	if unintCount > 0 {
		feats = append(feats, "has_unintelligible")
	}

	// Word-class proportions, suffix heuristic only
	var nounCount, verbCount int
	for _, t := range lower {
		switch {
		case IsFunctionWord(t):
		case strings.HasSuffix(t, "ing") || strings.HasSuffix(t, "ed"):
			verbCount++
		case strings.HasSuffix(t, "'s") || strings.HasSuffix(t, "s"):
			nounCount++
		}
	}
	feats = append(feats,
		"prop_nouns="+formatFloat(ratio(float64(nounCount), float64(n))),
		"prop_verbs="+formatFloat(ratio(float64(verbCount), float64(n))),
		"prop_function_words="+formatFloat(ratio(float64(fwCount), float64(n))),
	)

	if e.opts.Extended {
		feats = e.extractExtended(feats, lower, unique)
	}
	return feats
}

// extractExtended appends the opt-in syntax features: word n-grams, POS
// n-grams when a tagger is available, and the marker flags.
func (e *Extractor) extractExtended(feats []string, lower []string, unique map[string]bool) []string {
	for i := 0; i+1 < len(lower); i++ {
		feats = append(feats, "bigram="+lower[i]+"_"+lower[i+1])
	}
	for i := 0; i+2 < len(lower); i++ {
		feats = append(feats, "trigram="+lower[i]+"_"+lower[i+1]+"_"+lower[i+2])
	}

	if e.opts.POS && e.tagger != nil && e.tagger.Available() {
		tagged := e.tagger.Tag(lower)
		tags := make([]string, len(tagged))
		for i, tt := range tagged {
			tags[i] = tt.Tag
		}
		for _, tag := range tags {
			feats = append(feats, "pos="+tag)
		}
		for i := 0; i+1 < len(tags); i++ {
			feats = append(feats, "pos_bigram="+tags[i]+"_"+tags[i+1])
		}
		for i := 0; i+2 < len(tags); i++ {
			feats = append(feats, "pos_trigram="+tags[i]+"_"+tags[i+1]+"_"+tags[i+2])
		}
	}

	for _, m := range Markers {
		if unique[m] {
			feats = append(feats, "has_marker_"+m)
		}
	}
	for _, t := range lower {
		if len(t) > 1 && strings.HasSuffix(t, "s") {
			feats = append(feats, "has_plural")
			break
		}
	}
	for _, t := range lower {
		if negationTokens[t] {
			feats = append(feats, "has_negation")
			break
		}
	}
	return feats
}

// Event pairs extraction with label derivation for one utterance record.
func (e *Extractor) Event(u *models.Utterance, withText bool) models.Event {
	ev := models.Event{
		Tokens: e.Extract(u.Clean),
		Label:  agebin.FromMonths(u.AgeMonths),
	}
	if withText {
		ev.Text = u.Clean
	}
	return ev
}

// morphemes returns the morpheme count for one lowercased token: 1 plus at
// most one inflectional bonus, and the pattern that matched. Possessive wins
// over the bare -s check so "dog's" is not counted twice.
func morphemes(token string) (int, string) {
	switch {
	case strings.HasSuffix(token, "'s"):
		return 2, "possessive"
	case strings.HasSuffix(token, "ing") && len(token) >= 5:
		return 2, "ing"
	case strings.HasSuffix(token, "ed") && len(token) >= 4:
		return 2, "ed"
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) >= 3:
		return 2, "s"
	}
	return 1, ""
}

// intelligibilityBin maps the unintelligible-token proportion onto the
// ordinal none/low/mid/high scale.
func intelligibilityBin(prop float64) string {
	switch {
	case prop == 0:
		return "none"
	case prop <= 0.25:
		return "low"
	case prop <= 0.5:
		return "mid"
	default:
		return "high"
	}
}

// ratio returns a/b, or 0 when b is 0. Ratios on empty utterances stay
// defined instead of going NaN.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// formatFloat renders feature values compactly with full round-trip
// precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
