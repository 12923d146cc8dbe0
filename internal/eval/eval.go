// Package eval measures how each feature group affects prediction quality.
// It filters a fully-extracted event stream down to chosen groups, retrains
// on the filtered train split, and scores on the dev split, averaging over
// several seeded runs per configuration. The test split stays held out.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/maxent"
	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/internal/score"
)

// Result is one config's metrics, averaged over its runs.
type Result struct {
	Config  string
	Type    string
	Groups  string
	Runs    int
	Metrics score.Metrics
}

// Runner executes the experiment battery over pre-extracted event splits.
type Runner struct {
	train     []models.Event
	dev       []models.Event
	opts      features.Options
	hyper     maxent.Hyperparameters
	smoothing float64
	runs      int
	detailed  bool
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRuns sets how many seeded trainings are averaged per config.
func WithRuns(n int) Option {
	return func(r *Runner) {
		r.runs = n
	}
}

// WithHyperparameters overrides the training settings.
func WithHyperparameters(h maxent.Hyperparameters) Option {
	return func(r *Runner) {
		r.hyper = h
	}
}

// WithSmoothing sets the apply-time smoothing term.
func WithSmoothing(s float64) Option {
	return func(r *Runner) {
		r.smoothing = s
	}
}

// WithDetailed includes the extended-subgroup config families.
func WithDetailed(detailed bool) Option {
	return func(r *Runner) {
		r.detailed = detailed
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a Runner over fully-extracted train and dev events.
func New(train, dev []models.Event, opts features.Options, options ...Option) *Runner {
	r := &Runner{
		train:     train,
		dev:       dev,
		opts:      opts,
		hyper:     maxent.DefaultHyperparameters(),
		smoothing: 1.0,
		runs:      3,
		logger:    zap.NewNop(),
	}
	for _, o := range options {
		o(r)
	}
	if r.runs < 1 {
		r.runs = 1
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Run executes every config and returns results in report order. Any event
// token no group claims aborts the whole evaluation up front.
func (r *Runner) Run() ([]Result, error) {
	if err := CheckFeatures(r.train, r.dev); err != nil {
		return nil, err
	}

	r.logger.Info("Starting feature evaluation",
		zap.String("eval_id", uuid.New().String()),
		zap.Int("train_events", len(r.train)),
		zap.Int("dev_events", len(r.dev)),
		zap.Int("runs_per_config", r.runs),
		zap.Bool("detailed", r.detailed))

	configs := ConfigsFor(r.detailed)
	results := make([]Result, 0, len(configs))
	for _, cfg := range configs {
		res, err := r.runConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", cfg.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runConfig(cfg Config) (Result, error) {
	train := FilterEvents(r.train, cfg)
	dev := FilterEvents(r.dev, cfg)

	gold := make([]string, len(dev))
	for i, ev := range dev {
		gold[i] = ev.Label
	}

	var sum score.Metrics
	for run := 0; run < r.runs; run++ {
		hyper := r.hyper
		hyper.Seed += int64(run)
		m, err := maxent.Train(train, r.opts, hyper, r.logger)
		if err != nil {
			return Result{}, err
		}

		pred := make([]string, len(dev))
		for i, ev := range dev {
			p, err := m.ApplyEvent(ev, r.smoothing)
			if err != nil {
				return Result{}, err
			}
			pred[i] = p.Label
		}

		metrics, err := score.Evaluate(gold, pred)
		if err != nil {
			return Result{}, err
		}
		sum.N = metrics.N
		sum.ExactAccuracy += metrics.ExactAccuracy
		sum.Within1Accuracy += metrics.Within1Accuracy
		sum.MacroRecall += metrics.MacroRecall
		sum.MAEBins += metrics.MAEBins
		sum.MAEMonths += metrics.MAEMonths
	}

	n := float64(r.runs)
	avg := score.Metrics{
		N:               sum.N,
		ExactAccuracy:   sum.ExactAccuracy / n,
		Within1Accuracy: sum.Within1Accuracy / n,
		MacroRecall:     sum.MacroRecall / n,
		MAEBins:         sum.MAEBins / n,
		MAEMonths:       sum.MAEMonths / n,
	}
	r.logger.Info("Config evaluated",
		zap.String("config", cfg.Name),
		zap.String("type", cfg.Type),
		zap.Float64("accuracy", avg.ExactAccuracy))

	return Result{
		Config:  cfg.Name,
		Type:    cfg.Type,
		Groups:  cfg.GroupList(),
		Runs:    r.runs,
		Metrics: avg,
	}, nil
}

// FilterEvents keeps only the tokens whose group the config allows. Labels
// and raw text pass through untouched.
func FilterEvents(events []models.Event, cfg Config) []models.Event {
	detailed := cfg.Detailed()
	out := make([]models.Event, len(events))
	for i, ev := range events {
		kept := make([]string, 0, len(ev.Tokens))
		for _, tok := range ev.Tokens {
			if g, ok := features.GroupOf(tok, detailed); ok && cfg.Groups[g] {
				kept = append(kept, tok)
			}
		}
		out[i] = models.Event{Tokens: kept, Label: ev.Label, Text: ev.Text}
	}
	return out
}

// CheckFeatures verifies every token in every event maps to a feature
// group, guarding against renamed or newly added features silently dropping
// out of the analysis.
func CheckFeatures(eventSets ...[]models.Event) error {
	unknown := make(map[string]bool)
	for _, events := range eventSets {
		for _, ev := range events {
			for _, tok := range ev.Tokens {
				if _, ok := features.GroupOf(tok, false); !ok {
					name, _, _ := strings.Cut(tok, "=")
					unknown[name] = true
				}
			}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	names := make([]string, 0, len(unknown))
	for name := range unknown {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("unmapped features found: %s", strings.Join(names, ", "))
}
