// Package main is the agelab CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kidtalk/agelab/internal/clean"
	"github.com/kidtalk/agelab/internal/cli"
	"github.com/kidtalk/agelab/internal/config"
	"github.com/kidtalk/agelab/internal/corpus"
	"github.com/kidtalk/agelab/internal/eval"
	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/ingest"
	"github.com/kidtalk/agelab/internal/maxent"
	"github.com/kidtalk/agelab/internal/models"
	"github.com/kidtalk/agelab/internal/postag"
	"github.com/kidtalk/agelab/internal/score"
	"github.com/kidtalk/agelab/internal/server"
	"github.com/kidtalk/agelab/internal/watcher"
	"github.com/kidtalk/agelab/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/agelab/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "agelab serve" from the project dir picks up the
// project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	command := os.Args[1]
	switch command {
	case "parse":
		runParse()
	case "clean":
		runClean()
	case "split":
		runSplit()
	case "extract":
		runExtract()
	case "train":
		runTrain()
	case "apply":
		runApply()
	case "score":
		runScore()
	case "eval":
		runEval()
	case "search":
		runSearch()
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "status":
		runStatus()
	case "export":
		runExport()
	case "import":
		runImport()
	case "version", "--version", "-v":
		fmt.Printf("agelab version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(2)
	}
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dir := fs.String("dir", "", "ingest one directory instead of the configured raw_dirs")
	corpusName := fs.String("corpus", "", "corpus name (default: each transcript's parent directory)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	dirs := cfg.Data.RawDirs
	if *dir != "" {
		dirs = []string{*dir}
	}
	if len(dirs) == 0 {
		fmt.Fprintln(os.Stderr, "No raw directories: set data.raw_dirs in config or pass -dir")
		os.Exit(2)
	}

	c := openCorpus(cfg, logger)
	defer c.Close()
	ing := ingest.New(c, clean.New(cfg.Clean.MinWords), ingest.WithLogger(logger))

	ctx := context.Background()
	totalFiles, totalUtterances := 0, 0
	for _, d := range dirs {
		files, utterances, err := ing.IngestDirectory(ctx, d, *corpusName, cfg.Watch.Extensions)
		if err != nil {
			logger.Fatal("Ingest failed", zap.String("dir", d), zap.Error(err))
		}
		totalFiles += files
		totalUtterances += utterances
	}
	fmt.Printf("Parsed %d file(s), %d utterance(s)\n", totalFiles, totalUtterances)
}

func runClean() {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	c := openCorpus(cfg, logger)
	defer c.Close()
	ing := ingest.New(c, clean.New(cfg.Clean.MinWords), ingest.WithLogger(logger))

	n, err := ing.ReClean(context.Background())
	if err != nil {
		logger.Fatal("Re-clean failed", zap.Error(err))
	}
	fmt.Printf("Re-cleaned %d utterance(s)\n", n)
}

func runSplit() {
	peek := peekConfig(os.Args[2:])
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	seed := fs.Int64("seed", peek.Split.Seed, "shuffle seed")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	c := openCorpus(cfg, logger)
	defer c.Close()

	counts, err := c.AssignSplits(context.Background(), *seed, cfg.Split.TestFraction, cfg.Split.DevFraction)
	if err != nil {
		logger.Fatal("Split assignment failed", zap.Error(err))
	}
	fmt.Printf("Assigned splits: train=%d dev=%d test=%d\n", counts.Train, counts.Dev, counts.Test)
}

func runExtract() {
	peek := peekConfig(os.Args[2:])
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	split := fs.String("split", "train", "split to extract: train, dev, or test")
	out := fs.String("out", "", "output features file")
	extended := fs.Bool("extended", peek.Features.ExtendedOrDefault(), "include extended syntax features")
	pos := fs.Bool("pos", peek.Features.POSOrDefault(), "include part-of-speech features")
	withText := fs.Bool("with-text", peek.Features.WithText, "carry cleaned text in an utter= token")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	if *out == "" {
		*out = filepath.Join(cfg.Data.EventsDir, *split+".events")
	}

	c := openCorpus(cfg, logger)
	defer c.Close()

	cleaner := clean.New(cfg.Clean.MinWords)
	opts := features.Options{Extended: *extended, POS: *pos}
	extractor := buildExtractor(opts, cfg, logger)

	events, err := extractEvents(context.Background(), c, *split, cleaner, extractor, *withText)
	if err != nil {
		logger.Fatal("Extraction failed", zap.String("split", *split), zap.Error(err))
	}
	if err := features.WriteEventsFile(*out, events); err != nil {
		logger.Fatal("Failed to write events", zap.String("path", *out), zap.Error(err))
	}
	fmt.Printf("Extracted %d event(s) from split %s to %s\n", len(events), *split, *out)
}

func runTrain() {
	peek := peekConfig(os.Args[2:])
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	lr := fs.Float64("lr", peek.Train.LearningRate, "learning rate")
	epochs := fs.Int("epochs", peek.Train.Epochs, "maximum training epochs")
	l2 := fs.Float64("l2", peek.Train.L2, "L2 regularization strength")
	tol := fs.Float64("tol", peek.Train.Tolerance, "convergence tolerance")
	seed := fs.Int64("seed", peek.Train.Seed, "shuffle seed")
	extended := fs.Bool("extended", peek.Features.ExtendedOrDefault(), "record extended syntax in the model options")
	pos := fs.Bool("pos", peek.Features.POSOrDefault(), "record POS usage in the model options")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: agelab train [flags] <features> <model-out>")
		os.Exit(2)
	}
	featuresPath, modelOut := fs.Arg(0), fs.Arg(1)

	_, logger := setup(*configPath, false)
	defer logger.Sync()

	events, err := features.ReadEventsFile(featuresPath)
	if err != nil {
		logger.Fatal("Failed to read events", zap.String("path", featuresPath), zap.Error(err))
	}

	hyper := maxent.Hyperparameters{
		LearningRate: *lr,
		Epochs:       *epochs,
		L2:           *l2,
		Tolerance:    *tol,
		Seed:         *seed,
	}
	opts := features.Options{Extended: *extended, POS: *pos}
	model, err := maxent.Train(events, opts, hyper, logger)
	if err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}
	if err := model.Save(modelOut); err != nil {
		logger.Fatal("Failed to save model", zap.String("path", modelOut), zap.Error(err))
	}
	fmt.Printf("Model %s saved to %s\n", model.ID, modelOut)
}

func runApply() {
	peek := peekConfig(os.Args[2:])
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	smoothing := fs.Float64("smoothing", peek.Apply.SmoothingOrDefault(), "additive smoothing for predicted probabilities")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: agelab apply [flags] <model> <features>")
		os.Exit(2)
	}
	modelPath, featuresPath := fs.Arg(0), fs.Arg(1)

	_, logger := setup(*configPath, false)
	defer logger.Sync()

	model, err := maxent.Load(modelPath)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("path", modelPath), zap.Error(err))
	}
	events, err := features.ReadEventsFile(featuresPath)
	if err != nil {
		logger.Fatal("Failed to read events", zap.String("path", featuresPath), zap.Error(err))
	}

	for i, ev := range events {
		pred, err := model.ApplyEvent(ev, *smoothing)
		if err != nil {
			logger.Fatal("Prediction failed", zap.Int("line", i+1), zap.Error(err))
		}
		fmt.Println(cli.FormatPrediction(pred, model.Labels))
	}
}

func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	pred := fs.String("pred", "", "predictions file")
	gold := fs.String("gold", "", "gold features file")
	asJSON := fs.Bool("json", false, "emit the report as JSON")
	examples := fs.Int("examples", 0, "print up to n misclassified examples")
	_ = fs.Parse(os.Args[2:])

	if *pred == "" || *gold == "" {
		fmt.Fprintln(os.Stderr, "Usage: agelab score -pred predictions -gold features [-json] [-examples n]")
		os.Exit(2)
	}

	metrics, err := score.EvaluateFiles(*gold, *pred)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		if err := score.WriteJSON(os.Stdout, metrics); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		score.WriteReport(os.Stdout, metrics)
	}

	if *examples > 0 {
		goldLines, err := score.ReadLines(*gold)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read gold file: %v\n", err)
			os.Exit(1)
		}
		predLines, err := score.ReadLines(*pred)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read predictions file: %v\n", err)
			os.Exit(1)
		}
		score.WriteExamples(os.Stdout, goldLines, score.PredictedLabels(predLines), *examples)
	}
}

func runEval() {
	peek := peekConfig(os.Args[2:])
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	runs := fs.Int("runs", peek.Eval.Runs, "training runs per config (metrics averaged)")
	detailed := fs.Bool("detailed", peek.Eval.Detailed, "include extended-detail subgroup configs")
	xlsxPath := fs.String("xlsx", "", "also write an XLSX workbook to this path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	c := openCorpus(cfg, logger)
	defer c.Close()

	cleaner := clean.New(cfg.Clean.MinWords)
	opts := features.Options{
		Extended: cfg.Features.ExtendedOrDefault(),
		POS:      cfg.Features.POSOrDefault(),
	}
	extractor := buildExtractor(opts, cfg, logger)

	ctx := context.Background()
	trainEvents, err := extractEvents(ctx, c, "train", cleaner, extractor, false)
	if err != nil {
		logger.Fatal("Train extraction failed", zap.Error(err))
	}
	devEvents, err := extractEvents(ctx, c, "dev", cleaner, extractor, false)
	if err != nil {
		logger.Fatal("Dev extraction failed", zap.Error(err))
	}

	hyper := maxent.Hyperparameters{
		LearningRate: cfg.Train.LearningRate,
		Epochs:       cfg.Train.Epochs,
		L2:           cfg.Train.L2,
		Tolerance:    cfg.Train.Tolerance,
		Seed:         cfg.Train.Seed,
	}
	runner := eval.New(trainEvents, devEvents, opts,
		eval.WithRuns(*runs),
		eval.WithDetailed(*detailed),
		eval.WithHyperparameters(hyper),
		eval.WithSmoothing(cfg.Apply.SmoothingOrDefault()),
		eval.WithLogger(logger),
	)
	results, err := runner.Run()
	if err != nil {
		logger.Fatal("Evaluation failed", zap.Error(err))
	}

	if err := eval.WriteTSV(os.Stdout, results); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}
	if *xlsxPath != "" {
		if err := eval.WriteXLSX(*xlsxPath, results); err != nil {
			logger.Fatal("Failed to write XLSX report", zap.String("path", *xlsxPath), zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *xlsxPath)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	q := fs.String("q", "", "search query")
	corpusFilter := fs.String("corpus", "", "restrict results to one corpus")
	limit := fs.Int("limit", 10, "number of results")
	serverURL := fs.String("server", "", "search via a running server instead of opening the index")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *q == "" {
		fmt.Fprintln(os.Stderr, "Usage: agelab search -config c -q query [-limit n]")
		os.Exit(2)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(2)
	}

	query := &models.SearchQuery{Query: *q, Corpus: *corpusFilter, Limit: *limit}

	if *serverURL != "" {
		// Use the HTTP API when the server holds the index lock.
		response, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	c := openCorpus(cfg, logger)
	defer c.Close()

	response, err := c.Search(context.Background(), query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query.Query)
	if query.Corpus != "" {
		params.Set("corpus", query.Corpus)
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	resp, err := http.Get(serverURL + "/api/v1/search?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, ingests)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	if len(cfg.Data.RawDirs) == 0 {
		fmt.Fprintln(os.Stderr, "No raw directories: set data.raw_dirs in config")
		os.Exit(2)
	}

	c := openCorpus(cfg, logger)
	defer c.Close()
	ing := ingest.New(c, clean.New(cfg.Clean.MinWords), ingest.WithLogger(logger))

	w := watcher.New(
		cfg.Data.RawDirs,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := ing.IngestFile(context.Background(), path, ""); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := ing.RemoveFile(context.Background(), path, ""); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
	)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := w.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	w.SyncExistingFiles()
	logger.Info("Watching raw directories", zap.Strings("dirs", cfg.Data.RawDirs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	w.Stop()
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	modelPath := fs.String("model", "", "model artifact to serve (default: models_dir/model.bin)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	if *modelPath == "" {
		*modelPath = filepath.Join(cfg.Data.ModelsDir, "model.bin")
	}

	model, err := maxent.Load(*modelPath)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("path", *modelPath), zap.Error(err))
	}
	// The extractor must reproduce the features the model was trained on,
	// so its options come from the artifact, not the config.
	extractor := buildExtractor(model.Options, cfg, logger)

	c := openCorpus(cfg, logger)
	defer c.Close()

	srv := server.NewServer(
		c,
		model,
		extractor,
		clean.New(cfg.Clean.MinWords),
		cfg.Apply.SmoothingOrDefault(),
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "query a running server, e.g. http://localhost:8080")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(2)
	}

	var status *corpus.Status
	if *serverURL != "" {
		// Use the HTTP API when the server holds the index lock.
		s, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = s
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()

		c := openCorpus(cfg, logger)
		defer c.Close()

		s, err := c.Status(context.Background())
		if err != nil {
			logger.Fatal("Status failed", zap.Error(err))
		}
		status = s
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*corpus.Status, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status corpus.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	out := fs.String("out", "", "output CSV file (required)")
	split := fs.String("split", "", "export one split instead of the whole corpus")
	_ = fs.Parse(os.Args[2:])

	if *out == "" {
		fmt.Fprintln(os.Stderr, "Missing required flag: -out")
		os.Exit(2)
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	c := openCorpus(cfg, logger)
	defer c.Close()

	ctx := context.Background()
	var utterances []*models.Utterance
	var err error
	if *split != "" {
		utterances, err = c.ListSplit(ctx, *split)
	} else {
		utterances, err = c.ListAll(ctx)
	}
	if err != nil {
		logger.Fatal("Export failed", zap.Error(err))
	}
	if err := corpus.ExportCSV(*out, utterances); err != nil {
		logger.Fatal("Export failed", zap.String("path", *out), zap.Error(err))
	}
	fmt.Printf("Exported %d utterance(s) to %s\n", len(utterances), *out)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	csvPath := fs.String("csv", "", "CSV file written by export (required)")
	_ = fs.Parse(os.Args[2:])

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Missing required flag: -csv")
		os.Exit(2)
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	utterances, err := corpus.ImportCSV(*csvPath)
	if err != nil {
		logger.Fatal("Import failed", zap.String("path", *csvPath), zap.Error(err))
	}

	c := openCorpus(cfg, logger)
	defer c.Close()

	// Replace file by file so repeated imports stay idempotent.
	byFile := make(map[string][]*models.Utterance)
	var order []string
	for _, u := range utterances {
		if _, seen := byFile[u.File]; !seen {
			order = append(order, u.File)
		}
		byFile[u.File] = append(byFile[u.File], u)
	}
	ctx := context.Background()
	for _, file := range order {
		if err := c.ReplaceFile(ctx, file, byFile[file]); err != nil {
			logger.Fatal("Import failed", zap.String("file", file), zap.Error(err))
		}
	}
	fmt.Printf("Imported %d utterance(s) from %d file(s)\n", len(utterances), len(order))
}

// setup loads config and builds the logger shared by every subcommand.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Log.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	return cfg, logger
}

// peekConfig loads config before flag parsing so flag defaults can come
// from it. Load failures fall back to built-in defaults; the real load in
// setup reports them.
func peekConfig(args []string) *config.Config {
	path := configPathFromArgs(args, defaultConfigPath)
	cfg, _, err := loadConfig(path)
	if err != nil {
		return config.Default()
	}
	return cfg
}

// configPathFromArgs returns the value of -config/--config from args if
// present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

func openCorpus(cfg *config.Config, logger *zap.Logger) *corpus.Corpus {
	c, err := corpus.Open(cfg.Data.DBPath, cfg.Data.IndexPath, logger)
	if err != nil {
		logger.Fatal("Failed to open corpus", zap.Error(err))
	}
	return c
}

// buildExtractor wires the configured tagger into a feature extractor.
func buildExtractor(opts features.Options, cfg *config.Config, logger *zap.Logger) *features.Extractor {
	tagger := postag.New(cfg.Features.Tagger, cfg.Features.TaggerModelPath, logger)
	return features.New(opts, features.WithTagger(tagger), features.WithLogger(logger))
}

// extractEvents pulls one split from the corpus and extracts feature events
// for every utterance that passes the keep filter.
func extractEvents(ctx context.Context, c *corpus.Corpus, split string, cleaner *clean.Cleaner, extractor *features.Extractor, withText bool) ([]models.Event, error) {
	utterances, err := c.ListSplit(ctx, split)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(utterances))
	for _, u := range utterances {
		if !cleaner.Keep(u.Clean) {
			continue
		}
		events = append(events, extractor.Event(u, withText))
	}
	return events, nil
}

func printUsage() {
	fmt.Println(`agelab - developmental age prediction from child utterances

Usage:
  agelab parse [flags]                    Ingest .cha transcripts into the corpus
  agelab clean [flags]                    Re-clean stored raw text
  agelab split [flags]                    Assign train/dev/test splits
  agelab extract [flags]                  Write feature events for one split
  agelab train [flags] <features> <out>   Train a model on extracted events
  agelab apply [flags] <model> <features> Print predictions to stdout
  agelab score [flags]                    Score predictions against gold labels
  agelab eval [flags]                     Run the feature ablation battery
  agelab search [flags]                   Search the corpus
  agelab watch [flags]                    Watch raw directories for changes
  agelab serve [flags]                    Start the HTTP API server
  agelab status [flags]                   Show corpus and split counts
  agelab export [flags]                   Export the corpus to CSV
  agelab import [flags]                   Import a CSV export into the corpus
  agelab version                          Show version
  agelab help                             Show this help

Common Flags:
  -config string    Config file path (default: /usr/local/etc/agelab/config.yaml;
                    config.yaml in the current directory takes precedence)

Parse Flags:
  -dir string       Ingest one directory instead of the configured raw_dirs
  -corpus string    Corpus name (default: each transcript's parent directory)

Split Flags:
  -seed int         Shuffle seed (default from config)

Extract Flags:
  -split string     Split to extract: train, dev, or test (default: train)
  -out string       Output features file (default: events_dir/<split>.events)
  -extended         Include extended syntax features (default from config)
  -pos              Include part-of-speech features (default from config)
  -with-text        Carry cleaned text in an utter= token

Train Flags:
  -lr float         Learning rate            -epochs int   Maximum epochs
  -l2 float         L2 strength              -tol float    Convergence tolerance
  -seed int         Shuffle seed             (defaults from config)

Apply Flags:
  -smoothing float  Additive smoothing for probabilities (default from config)

Score Flags:
  -pred string      Predictions file (required)
  -gold string      Gold features file (required)
  -json             Emit the report as JSON
  -examples int     Print up to n misclassified examples

Eval Flags:
  -runs int         Training runs per config (default from config)
  -detailed         Include extended-detail subgroup configs
  -xlsx string      Also write an XLSX workbook

Search Flags:
  -q string         Search query (required)
  -corpus string    Restrict results to one corpus
  -limit int        Number of results (default: 10)
  -server string    Search via a running server, e.g. http://localhost:8080
  -output string    Output format: text or json (default: text)

Serve Flags:
  -model string     Model artifact to serve (default: models_dir/model.bin)
  -debug            Enable debug logging

Status Flags:
  -server string    Query a running server, e.g. http://localhost:8080
  -output string    Output format: text or json (default: text)

Export Flags:
  -out string       Output CSV file (required)
  -split string     Export one split instead of the whole corpus

Import Flags:
  -csv string       CSV file written by export (required)

Examples:
  agelab parse -config config.yaml -dir data/raw/clark
  agelab split -config config.yaml
  agelab extract -config config.yaml -split train -out train.events
  agelab extract -config config.yaml -split test -out test.events
  agelab train -config config.yaml train.events model.bin
  agelab apply model.bin test.events > predictions.txt
  agelab score -pred predictions.txt -gold test.events -examples 10
  agelab eval -config config.yaml -runs 3 -xlsx ablation.xlsx
  agelab search -config config.yaml -q "doggie" -limit 5
  agelab export -config config.yaml -out corpus.csv
  agelab serve -config config.yaml -model model.bin`)
}
