package eval

import (
	"sort"
	"strings"

	"github.com/kidtalk/agelab/internal/features"
)

// Config is one experiment: a name, its family, and the feature groups the
// event stream is filtered down to before training.
type Config struct {
	Name   string
	Type   string
	Groups map[string]bool
}

// GroupList returns the allowed groups sorted and comma-joined, the form
// the report tables use.
func (c Config) GroupList() string {
	names := make([]string, 0, len(c.Groups))
	for g := range c.Groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Detailed reports whether the config names extended subgroups, which
// switches feature mapping to the fine-grained extended groups.
func (c Config) Detailed() bool {
	for _, g := range features.ExtendedSubgroups {
		if c.Groups[g] {
			return true
		}
	}
	return false
}

// Configs returns every experiment in report order: the additive path from
// lexical features up to the full model, leave-one-out ablations, then the
// extended-syntax subgroup variants of both.
func Configs() []Config {
	all := set(features.Groups...)
	baseline := minus(all, features.GroupExtended)
	allDetailed := union(baseline, set(features.ExtendedSubgroups...))

	var configs []Config
	add := func(typ, name string, groups map[string]bool) {
		configs = append(configs, Config{Name: name, Type: typ, Groups: groups})
	}

	add("additive", "lexical_only", set(features.GroupLexical))
	add("additive", "lexical_function", set(features.GroupLexical, features.GroupFunction))
	add("additive", "+morphology", set(features.GroupLexical, features.GroupFunction, features.GroupMorph))
	add("additive", "+intelligibility", set(features.GroupLexical, features.GroupFunction, features.GroupMorph, features.GroupIntel))
	add("additive", "baseline_no_extended", baseline)
	add("additive", "full_extended", all)

	add("ablation", "full_minus_lexical", minus(all, features.GroupLexical))
	add("ablation", "full_minus_function_words", minus(all, features.GroupFunction))
	add("ablation", "full_minus_morphology", minus(all, features.GroupMorph))
	add("ablation", "full_minus_intelligibility", minus(all, features.GroupIntel))
	add("ablation", "full_minus_word_class_props", minus(all, features.GroupClassProp))
	add("ablation", "full_minus_extended", minus(all, features.GroupExtended))

	add("ext_additive", "baseline+bigrams", union(baseline, set(features.GroupExtBigrams)))
	add("ext_additive", "baseline+trigrams", union(baseline, set(features.GroupExtTrigrams)))
	add("ext_additive", "baseline+pos", union(baseline, set(features.GroupExtPOS)))
	add("ext_additive", "baseline+pos_bigrams", union(baseline, set(features.GroupExtPOSBigrams)))
	add("ext_additive", "baseline+pos_trigrams", union(baseline, set(features.GroupExtPOSTrigrams)))
	add("ext_additive", "baseline+markers", union(baseline, set(features.GroupExtMarkers)))
	add("ext_additive", "full_detailed", allDetailed)

	add("ext_ablation", "full_minus_bigrams", minus(allDetailed, features.GroupExtBigrams))
	add("ext_ablation", "full_minus_trigrams", minus(allDetailed, features.GroupExtTrigrams))
	add("ext_ablation", "full_minus_pos", minus(allDetailed, features.GroupExtPOS))
	add("ext_ablation", "full_minus_pos_bigrams", minus(allDetailed, features.GroupExtPOSBigrams))
	add("ext_ablation", "full_minus_pos_trigrams", minus(allDetailed, features.GroupExtPOSTrigrams))
	add("ext_ablation", "full_minus_markers", minus(allDetailed, features.GroupExtMarkers))

	return configs
}

// ConfigsFor returns the coarse additive and ablation families, plus the
// extended-subgroup families when detailed is set.
func ConfigsFor(detailed bool) []Config {
	configs := Configs()
	if detailed {
		return configs
	}
	coarse := make([]Config, 0, len(configs))
	for _, c := range configs {
		if c.Type == "additive" || c.Type == "ablation" {
			coarse = append(coarse, c)
		}
	}
	return coarse
}

func set(groups ...string) map[string]bool {
	s := make(map[string]bool, len(groups))
	for _, g := range groups {
		s[g] = true
	}
	return s
}

func union(a, b map[string]bool) map[string]bool {
	s := make(map[string]bool, len(a)+len(b))
	for g := range a {
		s[g] = true
	}
	for g := range b {
		s[g] = true
	}
	return s
}

func minus(a map[string]bool, group string) map[string]bool {
	s := make(map[string]bool, len(a))
	for g := range a {
		if g != group {
			s[g] = true
		}
	}
	return s
}
