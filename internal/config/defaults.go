package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Data.Root == "" {
		cfg.Data.Root = "/usr/local/var/agelab/data"
	}
	if cfg.Clean.MinWords == 0 {
		cfg.Clean.MinWords = 3
	}
	if cfg.Split.Seed == 0 {
		cfg.Split.Seed = 42
	}
	if cfg.Split.TestFraction == 0 {
		cfg.Split.TestFraction = 0.2
	}
	if cfg.Split.DevFraction == 0 {
		cfg.Split.DevFraction = 0.1
	}
	if cfg.Features.Tagger == "" {
		cfg.Features.Tagger = "rule"
	}
	if cfg.Train.LearningRate == 0 {
		cfg.Train.LearningRate = 0.1
	}
	if cfg.Train.Epochs == 0 {
		cfg.Train.Epochs = 50
	}
	if cfg.Train.L2 == 0 {
		cfg.Train.L2 = 1e-4
	}
	if cfg.Train.Tolerance == 0 {
		cfg.Train.Tolerance = 1e-6
	}
	if cfg.Train.Seed == 0 {
		cfg.Train.Seed = 42
	}
	if cfg.Eval.Runs == 0 {
		cfg.Eval.Runs = 3
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".cha"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Data.RawDirs) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
