// Package models defines core data structures for utterances, feature events,
// predictions, and corpus search.
package models

// AgeUnknown marks an utterance whose transcript carried no usable age.
const AgeUnknown = -1

// Utterance is one transcribed child utterance with its transcript metadata.
// Raw is the text as transcribed; Clean is the normalized form used for
// feature extraction.
type Utterance struct {
	ID        string  `json:"id" db:"id" csv:"id"`
	Corpus    string  `json:"corpus" db:"corpus" csv:"corpus"`
	File      string  `json:"file" db:"file" csv:"file"`
	Speaker   string  `json:"speaker" db:"speaker" csv:"speaker"`
	AgeMonths float64 `json:"age_months" db:"age_months" csv:"age_months"`
	Raw       string  `json:"raw" db:"raw" csv:"raw"`
	Clean     string  `json:"clean" db:"clean" csv:"clean"`
	WordCount int     `json:"word_count" db:"word_count" csv:"word_count"`
	Split     string  `json:"split" db:"split" csv:"split"`
}

// HasAge reports whether the utterance carries a usable age.
func (u *Utterance) HasAge() bool {
	return u.AgeMonths >= 0
}

// Split assignment values.
const (
	SplitTrain = "train"
	SplitDev   = "dev"
	SplitTest  = "test"
)
