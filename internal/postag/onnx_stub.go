//go:build !cgo
// +build !cgo

package postag

import (
	"errors"
)

// OnnxTagger stub type when built without CGO (see onnx.go for the real
// implementation).
type OnnxTagger struct{}

// NewOnnxTagger returns an error when built without CGO (ONNX not available).
func NewOnnxTagger(_ string, _ int) (*OnnxTagger, error) {
	return nil, errors.New("ONNX tagger requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Tag never runs on the stub.
func (t *OnnxTagger) Tag(_ []string) []TaggedToken {
	return nil
}

// Available always reports false on the stub.
func (t *OnnxTagger) Available() bool {
	return false
}

// Close is a no-op on the stub.
func (t *OnnxTagger) Close() error {
	return nil
}
