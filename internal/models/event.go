package models

// Event is one utterance's extracted features in the events interchange
// format: an ordered list of feature tokens ("word_count=4", "bigram=the_dog",
// or a bare flag like "has_negation"), the gold label when known, and
// optionally the cleaned utterance text for reporting.
type Event struct {
	Tokens []string `json:"tokens"`
	Label  string   `json:"label,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Prediction is the outcome of applying a model to one feature vector.
// Scores align with the model's ordered bin labels; Index is the argmax
// position, ties resolved to the lowest bin.
type Prediction struct {
	Label  string    `json:"label"`
	Index  int       `json:"index"`
	Scores []float64 `json:"scores"`
}
