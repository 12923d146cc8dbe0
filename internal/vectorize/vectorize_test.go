package vectorize

import (
	"reflect"
	"testing"

	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/models"
)

func trainEvents() []models.Event {
	return []models.Event{
		{Tokens: []string{"word_count=3", "ttr=1", "has_the", "bigram=the_dog"}, Label: "1yo"},
		{Tokens: []string{"word_count=4", "ttr=0.75", "bigram=the_cat", "has_negation"}, Label: "2yo"},
	}
}

func TestFitSortedAndStable(t *testing.T) {
	v := Fit(trainEvents())
	want := []string{"bigram=the_cat", "bigram=the_dog", "has_negation", "has_the"}
	if !reflect.DeepEqual(v.Keys(), want) {
		t.Errorf("vocabulary keys = %v, want %v", v.Keys(), want)
	}

	// Refit on the same events reproduces the same mapping.
	again := Fit(trainEvents())
	if !reflect.DeepEqual(v.Keys(), again.Keys()) {
		t.Errorf("refit changed the vocabulary: %v != %v", v.Keys(), again.Keys())
	}
}

func TestFitExcludesDenseKeys(t *testing.T) {
	v := Fit(trainEvents())
	for _, key := range v.Keys() {
		if _, ok := v.Index(key); !ok {
			t.Errorf("key %q missing from index", key)
		}
	}
	if _, ok := v.Index("word_count=3"); ok {
		t.Error("dense token leaked into the vocabulary")
	}
}

func TestTransformLengthInvariance(t *testing.T) {
	v := Fit(trainEvents())
	vz := New(v)

	short := vz.Transform(models.Event{Tokens: []string{"word_count=1"}})
	long := vz.Transform(models.Event{Tokens: []string{
		"word_count=9", "ttr=0.5", "has_the", "bigram=the_dog", "bigram=the_cat",
		"bigram=never_seen", "trigram=a_b_c",
	}})
	if len(short) != len(long) {
		t.Errorf("vector lengths differ: %d != %d", len(short), len(long))
	}
	if len(short) != vz.Dim() {
		t.Errorf("length %d != Dim() %d", len(short), vz.Dim())
	}
	if vz.Dim() != len(features.DenseKeys)+v.Size() {
		t.Errorf("Dim() = %d, want dense %d + vocab %d",
			vz.Dim(), len(features.DenseKeys), v.Size())
	}
}

func TestTransformDenseSlots(t *testing.T) {
	v := Fit(trainEvents())
	vz := New(v)
	vec := vz.Transform(models.Event{Tokens: []string{"word_count=4", "ttr=0.75"}})

	wcSlot, _ := features.DenseIndex("word_count")
	ttrSlot, _ := features.DenseIndex("ttr")
	if vec[wcSlot] != 4 {
		t.Errorf("word_count slot = %v, want 4", vec[wcSlot])
	}
	if vec[ttrSlot] != 0.75 {
		t.Errorf("ttr slot = %v, want 0.75", vec[ttrSlot])
	}
}

func TestTransformSparsePresence(t *testing.T) {
	v := Fit(trainEvents())
	vz := New(v)

	idx, ok := v.Index("bigram=the_dog")
	if !ok {
		t.Fatal("bigram=the_dog missing from vocabulary")
	}
	// Duplicate sparse tokens still encode presence, not counts.
	vec := vz.Transform(models.Event{Tokens: []string{"bigram=the_dog", "bigram=the_dog"}})
	if got := vec[len(features.DenseKeys)+idx]; got != 1.0 {
		t.Errorf("sparse slot = %v, want 1.0", got)
	}
}

func TestTransformUnseenKeyContributesZero(t *testing.T) {
	v := Fit(trainEvents())
	vz := New(v)
	sizeBefore := v.Size()

	vec := vz.Transform(models.Event{Tokens: []string{"bigram=totally_new"}})
	for i, val := range vec {
		if val != 0 {
			t.Errorf("unseen-only event produced nonzero at %d: %v", i, val)
		}
	}
	if v.Size() != sizeBefore {
		t.Errorf("vocabulary grew at transform time: %d -> %d", sizeBefore, v.Size())
	}
}

func TestTransformMalformedDenseAbsorbed(t *testing.T) {
	v := Fit(trainEvents())
	vz := New(v)
	vec := vz.Transform(models.Event{Tokens: []string{"word_count=abc", "ttr=0.5"}})

	wcSlot, _ := features.DenseIndex("word_count")
	ttrSlot, _ := features.DenseIndex("ttr")
	if vec[wcSlot] != 0 {
		t.Errorf("malformed dense value should read as zero, got %v", vec[wcSlot])
	}
	if vec[ttrSlot] != 0.5 {
		t.Errorf("valid dense value lost: %v", vec[ttrSlot])
	}
}

func TestNewVocabularyRoundTrip(t *testing.T) {
	v := Fit(trainEvents())
	rebuilt := NewVocabulary(v.Keys())
	if !reflect.DeepEqual(v.Keys(), rebuilt.Keys()) {
		t.Errorf("rebuilt keys differ: %v != %v", v.Keys(), rebuilt.Keys())
	}
	for i, key := range v.Keys() {
		idx, ok := rebuilt.Index(key)
		if !ok || idx != i {
			t.Errorf("rebuilt index for %q = %d,%v, want %d,true", key, idx, ok, i)
		}
	}
}
