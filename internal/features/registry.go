package features

import "strings"

// DenseKeys are the always-present numeric features, in vector slot order.
// The vectorizer places them in the leading positions of every feature
// vector; sparse vocabulary entries follow.
var DenseKeys = []string{
	"word_count",
	"unique_words",
	"ttr",
	"char_len",
	"function_word_count",
	"function_word_prop",
	"function_word_types",
	"content_to_function_ratio",
	"mlu_words",
	"morpheme_count",
	"mlu_morphemes",
	"unintelligible_count",
	"unintelligible_prop",
	"prop_nouns",
	"prop_verbs",
	"prop_function_words",
}

var denseIndex = func() map[string]int {
	m := make(map[string]int, len(DenseKeys))
	for i, k := range DenseKeys {
		m[k] = i
	}
	return m
}()

// DenseIndex returns the vector slot for a dense feature name.
func DenseIndex(name string) (int, bool) {
	i, ok := denseIndex[name]
	return i, ok
}

// Feature groups for the ablation harness.
const (
	GroupLexical   = "lexical_length"
	GroupFunction  = "function_words"
	GroupMorph     = "morphology_inflection"
	GroupIntel     = "intelligibility"
	GroupClassProp = "word_class_props"
	GroupExtended  = "extended_syntax"

	GroupExtBigrams     = "ext_bigrams"
	GroupExtTrigrams    = "ext_trigrams"
	GroupExtPOS         = "ext_pos"
	GroupExtPOSBigrams  = "ext_pos_bigrams"
	GroupExtPOSTrigrams = "ext_pos_trigrams"
	GroupExtMarkers     = "ext_markers"
)

// Groups is the coarse group set.
var Groups = []string{
	GroupLexical,
	GroupFunction,
	GroupMorph,
	GroupIntel,
	GroupClassProp,
	GroupExtended,
}

// ExtendedSubgroups split GroupExtended for fine-grained analysis.
var ExtendedSubgroups = []string{
	GroupExtBigrams,
	GroupExtTrigrams,
	GroupExtPOS,
	GroupExtPOSBigrams,
	GroupExtPOSTrigrams,
	GroupExtMarkers,
}

var morphFlags = map[string]bool{
	"has_ing":           true,
	"has_ed":            true,
	"has_3sg_or_plural": true,
	"has_possessive":    true,
}

// GroupOf maps a feature token to its group. With detailed set, extended
// syntax features resolve to their subgroup instead of the coarse group.
// The second return is false for tokens no group claims; the ablation
// harness treats those as a defect rather than silently dropping them.
func GroupOf(feat string, detailed bool) (string, bool) {
	switch {
	case hasAnyPrefix(feat, "word_count=", "unique_words=", "ttr=", "first_word=", "last_word=", "char_len="):
		return GroupLexical, true
	case hasAnyPrefix(feat, "function_word_count=", "function_word_prop=", "function_word_types=", "content_to_function_ratio="):
		return GroupFunction, true
	case hasAnyPrefix(feat, "mlu_words=", "morpheme_count=", "mlu_morphemes=") || morphFlags[feat]:
		return GroupMorph, true
	case hasAnyPrefix(feat, "unintelligible_count=", "unintelligible_prop=", "unintelligible_bin=") || feat == "has_unintelligible":
		return GroupIntel, true
	case hasAnyPrefix(feat, "prop_nouns=", "prop_verbs=", "prop_function_words="):
		return GroupClassProp, true
	case strings.HasPrefix(feat, "bigram="):
		return extGroup(GroupExtBigrams, detailed), true
	case strings.HasPrefix(feat, "trigram="):
		return extGroup(GroupExtTrigrams, detailed), true
	case strings.HasPrefix(feat, "pos="):
		return extGroup(GroupExtPOS, detailed), true
	case strings.HasPrefix(feat, "pos_bigram="):
		return extGroup(GroupExtPOSBigrams, detailed), true
	case strings.HasPrefix(feat, "pos_trigram="):
		return extGroup(GroupExtPOSTrigrams, detailed), true
	case strings.HasPrefix(feat, "has_marker_") || feat == "has_plural" || feat == "has_negation":
		return extGroup(GroupExtMarkers, detailed), true
	case strings.HasPrefix(feat, "has_") && IsFunctionWord(strings.TrimPrefix(feat, "has_")):
		return GroupFunction, true
	}
	return "", false
}

func extGroup(subgroup string, detailed bool) string {
	if detailed {
		return subgroup
	}
	return GroupExtended
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
