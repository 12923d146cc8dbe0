// Package config provides configuration loading and structs for the agelab tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Clean    CleanConfig    `yaml:"clean"`
	Split    SplitConfig    `yaml:"split"`
	Features FeaturesConfig `yaml:"features"`
	Train    TrainConfig    `yaml:"train"`
	Apply    ApplyConfig    `yaml:"apply"`
	Eval     EvalConfig     `yaml:"eval"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig holds paths for the corpus database, the search index and
// the pipeline directories. Empty paths are derived from Root.
type DataConfig struct {
	Root      string   `yaml:"root"`
	RawDirs   []string `yaml:"raw_dirs"`
	DBPath    string   `yaml:"db_path"`
	IndexPath string   `yaml:"index_path"`
	EventsDir string   `yaml:"events_dir"`
	ModelsDir string   `yaml:"models_dir"`
}

// CleanConfig holds utterance normalization settings.
type CleanConfig struct {
	MinWords int `yaml:"min_words"`
}

// SplitConfig holds the seeded train/dev/test assignment settings.
type SplitConfig struct {
	Seed         int64   `yaml:"seed"`
	TestFraction float64 `yaml:"test_fraction"`
	DevFraction  float64 `yaml:"dev_fraction"`
}

// FeaturesConfig holds feature extraction settings. Extended and POS
// are pointers so an explicit false is distinct from unset.
type FeaturesConfig struct {
	Extended        *bool  `yaml:"extended"`
	POS             *bool  `yaml:"pos"`
	Tagger          string `yaml:"tagger"`
	TaggerModelPath string `yaml:"tagger_model_path"`
	WithText        bool   `yaml:"with_text"`
}

// ExtendedOrDefault returns the extended flag; defaults to true when unset.
func (f *FeaturesConfig) ExtendedOrDefault() bool {
	if f.Extended != nil {
		return *f.Extended
	}
	return true
}

// POSOrDefault returns the POS flag; defaults to true when unset.
func (f *FeaturesConfig) POSOrDefault() bool {
	if f.POS != nil {
		return *f.POS
	}
	return true
}

// TrainConfig holds the optimizer hyperparameters.
type TrainConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	L2           float64 `yaml:"l2"`
	Tolerance    float64 `yaml:"tolerance"`
	Seed         int64   `yaml:"seed"`
}

// ApplyConfig holds prediction-time settings. Smoothing is a pointer
// so an explicit 0 is distinct from unset.
type ApplyConfig struct {
	Smoothing *float64 `yaml:"smoothing"`
}

// SmoothingOrDefault returns the smoothing constant; defaults to 1.0 when unset.
func (a *ApplyConfig) SmoothingOrDefault() float64 {
	if a.Smoothing != nil {
		return *a.Smoothing
	}
	return 1.0
}

// EvalConfig holds feature evaluation harness settings.
type EvalConfig struct {
	Runs     int  `yaml:"runs"`
	Detailed bool `yaml:"detailed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WatchConfig holds transcript watch settings.
type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms"`
	Extensions []string `yaml:"extensions"`
	Recursive  *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// LogConfig holds logger settings.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))

	return &cfg, nil
}

// Default returns a config with defaults applied and paths resolved,
// for commands invoked without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	resolvePaths(cfg, home)
	return cfg
}

// resolvePaths expands Data.Root, fills the empty data paths from it
// and expands every remaining path field.
func resolvePaths(cfg *Config, configDir string) {
	cfg.Data.Root = expandPath(cfg.Data.Root, configDir)

	if cfg.Data.DBPath == "" {
		cfg.Data.DBPath = filepath.Join(cfg.Data.Root, "db", "corpus.db")
	} else {
		cfg.Data.DBPath = expandPath(cfg.Data.DBPath, configDir)
	}
	if cfg.Data.IndexPath == "" {
		cfg.Data.IndexPath = filepath.Join(cfg.Data.Root, "indices", "utterances.bleve")
	} else {
		cfg.Data.IndexPath = expandPath(cfg.Data.IndexPath, configDir)
	}
	if cfg.Data.EventsDir == "" {
		cfg.Data.EventsDir = filepath.Join(cfg.Data.Root, "events")
	} else {
		cfg.Data.EventsDir = expandPath(cfg.Data.EventsDir, configDir)
	}
	if cfg.Data.ModelsDir == "" {
		cfg.Data.ModelsDir = filepath.Join(cfg.Data.Root, "models")
	} else {
		cfg.Data.ModelsDir = expandPath(cfg.Data.ModelsDir, configDir)
	}

	for i := range cfg.Data.RawDirs {
		cfg.Data.RawDirs[i] = expandPath(cfg.Data.RawDirs[i], configDir)
	}
	if cfg.Features.TaggerModelPath != "" {
		cfg.Features.TaggerModelPath = expandPath(cfg.Features.TaggerModelPath, configDir)
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
