// Package maxent implements the multinomial logistic-regression model over
// utterance feature vectors: training by seeded stochastic gradient descent
// with L2 regularization, and apply-time scoring with additive smoothing.
package maxent

import (
	"errors"
	"fmt"
	"math"

	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/internal/vectorize"
	"github.com/kidtalk/agelab/pkg/utils"
)

var (
	// ErrNoTrainingData means the training set had zero usable examples.
	ErrNoTrainingData = errors.New("no training examples")
	// ErrSingleLabel means every usable example carried the same label.
	ErrSingleLabel = errors.New("training data has a single label")
	// ErrVocabularyMismatch means a vector's length does not match the
	// model. It is never silently padded or truncated.
	ErrVocabularyMismatch = errors.New("feature vector length does not match model")
	// ErrArtifactFormat means a persisted model could not be read back.
	ErrArtifactFormat = errors.New("unrecognized model artifact format")
)

// Hyperparameters control the training loop.
type Hyperparameters struct {
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	L2           float64 `json:"l2" yaml:"l2"`
	Tolerance    float64 `json:"tolerance" yaml:"tolerance"`
	Seed         int64   `json:"seed" yaml:"seed"`
}

// DefaultHyperparameters returns the stock training settings.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate: 0.1,
		Epochs:       50,
		L2:           1e-4,
		Tolerance:    1e-6,
		Seed:         42,
	}
}

// Model is a trained multinomial logistic-regression classifier. Weights are
// owned exclusively by the model: written during training, read-only at
// apply time.
type Model struct {
	ID      string
	Labels  []string
	Vocab   *vectorize.Vocabulary
	Options features.Options
	Hyper   Hyperparameters

	weights [][]float64 // one row per label
	bias    []float64
}

// Dim returns the feature-vector length the model scores.
func (m *Model) Dim() int {
	return len(features.DenseKeys) + m.Vocab.Size()
}

// NumLabels returns the number of bins the model separates.
func (m *Model) NumLabels() int {
	return len(m.Labels)
}

// Vectorizer returns a vectorizer bound to the model's frozen vocabulary.
func (m *Model) Vectorizer() *vectorize.Vectorizer {
	return vectorize.New(m.Vocab)
}

// Apply scores one feature vector. The smoothing term is additive on the
// exponentiated class scores: p_k = (exp(z_k)+s) / (sum_j exp(z_j) + K*s).
// It is supplied per call and never stored with the model. The predicted
// label is the argmax; ties resolve to the lowest bin index.
func (m *Model) Apply(x []float64, smoothing float64) (*models.Prediction, error) {
	if len(x) != m.Dim() {
		return nil, fmt.Errorf("%w: vector has %d features, model expects %d",
			ErrVocabularyMismatch, len(x), m.Dim())
	}
	z := m.rawScores(x)
	probs := smoothedSoftmax(z, smoothing)
	best := utils.ArgMax(probs)
	return &models.Prediction{
		Label:  m.Labels[best],
		Index:  best,
		Scores: probs,
	}, nil
}

// ApplyEvent vectorizes one event against the model vocabulary and scores it.
func (m *Model) ApplyEvent(ev models.Event, smoothing float64) (*models.Prediction, error) {
	return m.Apply(m.Vectorizer().Transform(ev), smoothing)
}

func (m *Model) rawScores(x []float64) []float64 {
	z := make([]float64, len(m.Labels))
	for k := range z {
		z[k] = utils.Dot(m.weights[k], x) + m.bias[k]
	}
	return z
}

// smoothedSoftmax normalizes class scores into a probability-like
// distribution with additive smoothing. Exponentials are shifted by the max
// score, with the smoothing term scaled by exp(-max) so the result equals
// the unshifted formula.
func smoothedSoftmax(z []float64, smoothing float64) []float64 {
	if smoothing < 0 {
		smoothing = 0
	}
	max := z[0]
	for _, v := range z[1:] {
		if v > max {
			max = v
		}
	}
	s := smoothing * math.Exp(-max)
	probs := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		probs[i] = math.Exp(v-max) + s
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
