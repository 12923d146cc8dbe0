// Package postag provides part-of-speech tagging as an optional capability.
// Feature extraction asks the tagger whether it is available and omits POS
// features entirely when it is not, so a missing tagger never fails a run.
package postag

import (
	"go.uber.org/zap"
)

// TaggedToken is one (token, tag) pair in utterance order.
type TaggedToken struct {
	Token string
	Tag   string
}

// Tagger assigns a part-of-speech tag to each token.
type Tagger interface {
	// Tag returns one TaggedToken per input token, in order.
	Tag(tokens []string) []TaggedToken
	// Available reports whether the tagger can produce tags at all.
	Available() bool
}

// UniversalTags is the coarse tag set shared by all tagger implementations.
var UniversalTags = []string{
	"DET", "PRON", "ADP", "CONJ", "AUX", "VERB", "NOUN", "ADJ", "ADV", "NUM", "X",
}

// NullTagger is the no-op tagger: it produces no tags and reports itself
// unavailable.
type NullTagger struct{}

// NewNullTagger returns the no-op tagger.
func NewNullTagger() *NullTagger {
	return &NullTagger{}
}

// Tag returns nil; the null tagger never tags.
func (t *NullTagger) Tag(_ []string) []TaggedToken {
	return nil
}

// Available always reports false.
func (t *NullTagger) Available() bool {
	return false
}

// New selects a tagger by kind: "rule", "onnx", or "none". The ONNX tagger
// needs CGO and a model file; when it cannot be constructed the rule tagger
// stands in so extraction still gets POS features.
func New(kind, modelPath string, logger *zap.Logger) Tagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch kind {
	case "none":
		return NewNullTagger()
	case "onnx":
		tagger, err := NewOnnxTagger(modelPath, 0)
		if err != nil {
			logger.Warn("ONNX tagger unavailable, falling back to rule tagger", zap.Error(err))
			return NewRuleTagger()
		}
		logger.Info("using ONNX tagger", zap.String("model", modelPath))
		return tagger
	default:
		return NewRuleTagger()
	}
}
