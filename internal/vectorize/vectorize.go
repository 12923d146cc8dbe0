// Package vectorize binds extracted feature tokens to fixed-width numeric
// vectors. Dense features occupy the leading slots; sparse features are
// one-hot positions assigned by a vocabulary fitted on the training split
// and frozen afterwards.
package vectorize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/models"
)

// Vocabulary maps sparse feature keys to contiguous indices. Keys are held
// in sorted order so refitting on the same data reproduces the same mapping.
type Vocabulary struct {
	keys  []string
	index map[string]int
}

// Fit builds a vocabulary from the sparse feature keys of the given events.
// Call it on the training split only; inference must never grow the
// vocabulary.
func Fit(events []models.Event) *Vocabulary {
	seen := make(map[string]bool)
	for _, ev := range events {
		for _, tok := range ev.Tokens {
			if isDenseToken(tok) {
				continue
			}
			seen[tok] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return NewVocabulary(keys)
}

// NewVocabulary rebuilds a vocabulary from keys already in index order, as
// stored in a model artifact.
func NewVocabulary(keys []string) *Vocabulary {
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	return &Vocabulary{keys: keys, index: index}
}

// Keys returns the sparse keys in index order.
func (v *Vocabulary) Keys() []string {
	return v.keys
}

// Size returns the number of sparse keys.
func (v *Vocabulary) Size() int {
	return len(v.keys)
}

// Index returns the position of a sparse key.
func (v *Vocabulary) Index(key string) (int, bool) {
	i, ok := v.index[key]
	return i, ok
}

// Vectorizer turns events into vectors of fixed length
// |dense slots| + |vocabulary|.
type Vectorizer struct {
	vocab *Vocabulary
}

// New creates a Vectorizer over a fitted vocabulary.
func New(vocab *Vocabulary) *Vectorizer {
	return &Vectorizer{vocab: vocab}
}

// Vocabulary returns the vocabulary the vectorizer binds to.
func (vz *Vectorizer) Vocabulary() *Vocabulary {
	return vz.vocab
}

// Dim returns the vector length, identical for every transformed event.
func (vz *Vectorizer) Dim() int {
	return len(features.DenseKeys) + vz.vocab.Size()
}

// Transform produces the feature vector for one event. Dense values land in
// their fixed slots; each known sparse key sets 1.0 at its vocabulary
// position. Unseen sparse keys and malformed dense values contribute zero;
// neither is an error.
func (vz *Vectorizer) Transform(ev models.Event) []float64 {
	vec := make([]float64, vz.Dim())
	for _, tok := range ev.Tokens {
		name, value, hasValue := strings.Cut(tok, "=")
		if hasValue {
			if slot, ok := features.DenseIndex(name); ok {
				f, err := strconv.ParseFloat(value, 64)
				if err != nil {
					continue
				}
				vec[slot] = f
				continue
			}
		}
		if idx, ok := vz.vocab.Index(tok); ok {
			vec[len(features.DenseKeys)+idx] = 1.0
		}
	}
	return vec
}

func isDenseToken(tok string) bool {
	name, _, hasValue := strings.Cut(tok, "=")
	if !hasValue {
		return false
	}
	_, ok := features.DenseIndex(name)
	return ok
}
