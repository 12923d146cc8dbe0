package maxent

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/agebin"
	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/internal/vectorize"
)

// Train fits a model on labeled events. The vocabulary is fit on exactly
// these events and frozen into the returned model. Weights start at zero so
// identical inputs with the same seed reproduce the same model. Events
// labeled UNK, or with a label outside the bin set, are skipped.
//
// Training fails fast on degenerate data: no usable examples, or a single
// distinct label.
func Train(events []models.Event, opts features.Options, hyper Hyperparameters, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	usable := make([]models.Event, 0, len(events))
	skipped := 0
	for _, ev := range events {
		if _, ok := agebin.Index(ev.Label); !ok {
			skipped++
			continue
		}
		usable = append(usable, ev)
	}
	if skipped > 0 {
		logger.Warn("Skipping events without a usable age label", zap.Int("skipped", skipped))
	}
	if len(usable) == 0 {
		return nil, ErrNoTrainingData
	}

	labels := presentLabels(usable)
	if len(labels) < 2 {
		return nil, ErrSingleLabel
	}
	labelIndex := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIndex[l] = i
	}

	vocab := vectorize.Fit(usable)
	vz := vectorize.New(vocab)
	dim := vz.Dim()

	n := len(usable)
	vectors := make([][]float64, n)
	targets := make([]int, n)
	for i, ev := range usable {
		vectors[i] = vz.Transform(ev)
		targets[i] = labelIndex[ev.Label]
	}

	m := &Model{
		ID:      uuid.New().String(),
		Labels:  labels,
		Vocab:   vocab,
		Options: opts,
		Hyper:   hyper,
		weights: make([][]float64, len(labels)),
		bias:    make([]float64, len(labels)),
	}
	for k := range m.weights {
		m.weights[k] = make([]float64, dim)
	}

	logger.Info("Training model",
		zap.String("model_id", m.ID),
		zap.Int("examples", n),
		zap.Int("labels", len(labels)),
		zap.Int("dimensions", dim))

	rng := rand.New(rand.NewSource(hyper.Seed))
	prevLoss := math.Inf(1)
	for epoch := 0; epoch < hyper.Epochs; epoch++ {
		var sumCE float64
		for _, i := range rng.Perm(n) {
			sumCE += m.step(vectors[i], targets[i], hyper.LearningRate, hyper.L2)
		}
		loss := sumCE/float64(n) + 0.5*hyper.L2*m.weightNormSq()
		logger.Debug("Epoch finished",
			zap.Int("epoch", epoch+1),
			zap.Float64("loss", loss))
		if math.Abs(prevLoss-loss) < hyper.Tolerance {
			logger.Info("Converged", zap.Int("epoch", epoch+1), zap.Float64("loss", loss))
			break
		}
		prevLoss = loss
	}

	return m, nil
}

// step applies one stochastic gradient update and returns the example's
// cross-entropy before the update. L2 decay applies to weights only, never
// to the bias.
func (m *Model) step(x []float64, target int, lr, l2 float64) float64 {
	probs := smoothedSoftmax(m.rawScores(x), 0)
	ce := -math.Log(math.Max(probs[target], 1e-12))
	for k := range m.weights {
		grad := probs[k]
		if k == target {
			grad -= 1
		}
		w := m.weights[k]
		for j, xj := range x {
			if xj != 0 || l2 != 0 {
				w[j] -= lr * (grad*xj + l2*w[j])
			}
		}
		m.bias[k] -= lr * grad
	}
	return ce
}

func (m *Model) weightNormSq() float64 {
	var sum float64
	for _, row := range m.weights {
		for _, w := range row {
			sum += w * w
		}
	}
	return sum
}

// presentLabels returns the bin labels occurring in the events, in bin order.
func presentLabels(events []models.Event) []string {
	seen := make(map[string]bool, len(agebin.Labels))
	for _, ev := range events {
		seen[ev.Label] = true
	}
	labels := make([]string, 0, len(seen))
	for _, l := range agebin.Labels {
		if seen[l] {
			labels = append(labels, l)
		}
	}
	return labels
}
