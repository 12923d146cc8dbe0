//go:build cgo
// +build cgo

package postag

import (
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// OnnxTagger runs a sequence-tagging ONNX model (requires CGO and the
// onnxruntime shared library). The model takes hashed token IDs
// [1, maxTokens] and produces per-position logits over UniversalTags.
type OnnxTagger struct {
	session   *ort.AdvancedSession
	maxTokens int
	// Pre-allocated tensors for Run(); input data is overwritten per call.
	inputTensor  *ort.Tensor[int64]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewOnnxTagger creates an ONNX tagger. InitializeEnvironment is called if
// not already done.
func NewOnnxTagger(modelPath string, maxTokens int) (*OnnxTagger, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("no tagger model path configured")
	}
	if maxTokens <= 0 {
		maxTokens = 128
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), make([]int64, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens), int64(len(UniversalTags))),
		make([]float32, maxTokens*len(UniversalTags)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &OnnxTagger{
		session:      session,
		maxTokens:    maxTokens,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Tag runs the model over the token sequence. Positions past maxTokens get
// the fallback tag X.
func (t *OnnxTagger) Tag(tokens []string) []TaggedToken {
	t.mu.Lock()
	defer t.mu.Unlock()

	input := t.inputTensor.GetData()
	for i := range input {
		input[i] = 0
	}
	n := len(tokens)
	if n > t.maxTokens {
		n = t.maxTokens
	}
	for i := 0; i < n; i++ {
		input[i] = tokenID(strings.ToLower(tokens[i]))
	}

	tagged := make([]TaggedToken, len(tokens))
	for i := range tagged {
		tagged[i] = TaggedToken{Token: tokens[i], Tag: "X"}
	}
	if err := t.session.Run(); err != nil {
		return tagged
	}

	logits := t.outputTensor.GetData()
	numTags := len(UniversalTags)
	for i := 0; i < n; i++ {
		row := logits[i*numTags : (i+1)*numTags]
		best := 0
		for j := 1; j < numTags; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		tagged[i].Tag = UniversalTags[best]
	}
	return tagged
}

// Available always reports true once the session exists.
func (t *OnnxTagger) Available() bool {
	return t.session != nil
}

// Close destroys the session and tensors.
func (t *OnnxTagger) Close() error {
	var err error
	if t.session != nil {
		err = t.session.Destroy()
		t.session = nil
	}
	if t.inputTensor != nil {
		_ = t.inputTensor.Destroy()
		t.inputTensor = nil
	}
	if t.outputTensor != nil {
		_ = t.outputTensor.Destroy()
		t.outputTensor = nil
	}
	return err
}

// tokenID hashes a token into the model's ID space.
func tokenID(tok string) int64 {
	h := 0
	for _, c := range tok {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return int64(h%30000) + 1
}
