package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/theimaginaryfoundation/dimabsa/absa"
	"github.com/theimaginaryfoundation/dimabsa/absa/logging"
	"github.com/theimaginaryfoundation/dimabsa/absa/provider"
	"github.com/theimaginaryfoundation/dimabsa/absa/store"
)

func main() {
	ev, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:], ev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	log, err := logging.New("quad-infer", logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	profile, err := absa.LoadProfile(cfg.Profile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	apiKey := cfg.apiKey(ev)
	if apiKey == "" {
		if name, _ := provider.Normalize(cfg.Provider); name == provider.OpenAI {
			fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		} else {
			fmt.Fprintln(os.Stderr, "missing GEMINI_API_KEY or GOOGLE_API_KEY (or pass -api-key)")
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := provider.New(ctx, provider.Options{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      apiKey,
		MaxAttempts: cfg.MaxAttempts,
		JSONMode:    cfg.JSONMode,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	var (
		ledger absa.Ledger
		db     *store.Ledger
	)
	if cfg.LedgerPath != "" {
		db, err = store.Open(cfg.LedgerPath)
		if err != nil {
			log.Error().Err(err).Str("ledger", cfg.LedgerPath).Msg("failed to open ledger")
			os.Exit(1)
		}
		defer db.Close()
		ledger = db
	}

	tokens, err := absa.NewTokenCounter()
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable, prompt sizes will not be estimated")
	}

	providerName, _ := provider.Normalize(cfg.Provider)
	runner := &absa.Runner{
		Generator: gen,
		Profile:   profile,
		Provider:  providerName,
		Model:     gen.Model(),
		Delay:     cfg.Delay,
		Limit:     cfg.Limit,
		Log:       log,
		Ledger:    ledger,
		Resume:    cfg.Resume,
		Tokens:    tokens,
	}

	res, err := runInference(ctx, cfg, profile, runner, log)
	if err != nil {
		if errors.Is(err, absa.ErrInputNotFound) {
			log.Error().Err(err).Msg("input file not found")
		} else {
			log.Error().Err(err).Msg("inference failed")
		}
		os.Exit(1)
	}
	if db != nil {
		logLedgerTotals(ctx, db, profile.Name, log)
	}
	if !res.Written {
		fmt.Fprintf(os.Stdout, "items_loaded=0 predictions_written=0 profile=%s\n", profile.Name)
		return
	}
	fmt.Fprintf(os.Stdout, "items_loaded=%d predictions_written=%d ok=%d call_errors=%d parse_errors=%d resumed=%d quadruplets=%d off_taxonomy=%d interrupted=%v out=%s\n",
		res.Loaded, res.Predictions, res.Stats.OK, res.Stats.CallErrors, res.Stats.ParseErrors, res.Stats.Resumed,
		res.Stats.Quadruplets, res.Stats.OffTaxonomy, res.Stats.Interrupted, res.OutputPath)
}

// logLedgerTotals logs the ledger's per-status event counts for the profile across all runs.
func logLedgerTotals(ctx context.Context, db *store.Ledger, profile string, log zerolog.Logger) {
	counts, err := db.StatusCounts(context.WithoutCancel(ctx), profile)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read ledger totals")
		return
	}
	ev := log.Info().Str("profile", profile)
	for _, status := range []string{absa.StatusOK, absa.StatusCallError, absa.StatusParseError} {
		ev = ev.Int(status, counts[status])
	}
	ev.Msg("ledger totals")
}

func parseFlags(fs *flag.FlagSet, args []string, ev envConfig) (Config, error) {
	cfg := defaultConfig(ev)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.DataPath, "data-path", cfg.DataPath, "Directory holding the DimABSA dataset files")
	fs.StringVar(&cfg.InferData, "infer-data", cfg.InferData, "Inference input file name, looked up under -data-path first (default: the profile's input_file)")
	fs.StringVar(&cfg.OutputPath, "output-path", cfg.OutputPath, "Root directory for predictions; files go under <output-path>/subtask_3/")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Process at most N items (0 = all); the output file is prefixed test_limit_N_")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, fmt.Sprintf("Domain profile: one of %s, or a path to a profile YAML file", strings.Join(absa.BuiltinProfileNames(), ", ")))
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, fmt.Sprintf("Model provider (%s)", strings.Join(provider.Names(), "|")))
	fs.StringVar(&cfg.Model, "model", cfg.Model, fmt.Sprintf("Model name (default %s for gemini, %s for openai)", provider.DefaultGeminiModel, provider.DefaultOpenAIModel))
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (overrides GEMINI_API_KEY / GOOGLE_API_KEY / OPENAI_API_KEY)")
	fs.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Pause between consecutive model calls")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Attempts per model call; retries only on rate-limit and server errors")
	fs.BoolVar(&cfg.JSONMode, "json-mode", false, "Ask Gemini for schema-constrained JSON output")
	fs.StringVar(&cfg.LedgerPath, "ledger", "", "SQLite file recording every model call (optional)")
	fs.BoolVar(&cfg.Resume, "resume", false, "Reuse successful responses already in -ledger instead of calling the model")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "Log JSON lines instead of console output")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/quad-infer -profile laptop -limit 5 -log-level debug")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.DataPath = filepath.Clean(cfg.DataPath)
	cfg.OutputPath = filepath.Clean(cfg.OutputPath)
	return cfg, nil
}

type inferenceResult struct {
	InputPath   string
	OutputPath  string
	Loaded      int
	Predictions int
	Written     bool
	Stats       absa.RunStats
}

// runInference resolves and loads the input, runs the model over it, and writes the prediction file.
// An empty input is not an error: nothing is written and Written stays false.
func runInference(ctx context.Context, cfg Config, profile absa.Profile, runner *absa.Runner, log zerolog.Logger) (inferenceResult, error) {
	var res inferenceResult

	name := cfg.InferData
	if name == "" {
		name = profile.InputFile
	}
	inPath, err := absa.ResolveInputPath(cfg.DataPath, name)
	if err != nil {
		return res, err
	}
	res.InputPath = inPath

	items, stats, err := absa.LoadInferenceItems(inPath, log)
	if err != nil {
		return res, err
	}
	res.Loaded = len(items)
	log.Info().Str("in", inPath).Int("items", len(items)).Int("malformed", stats.Malformed).Int("missing_field", stats.MissingField).
		Str("profile", profile.Name).Msg("loaded inference data")
	if len(items) == 0 {
		log.Warn().Str("in", inPath).Msg("no data loaded, nothing to predict")
		return res, nil
	}

	start := time.Now()
	preds, runStats := runner.Run(ctx, items)
	res.Stats = runStats
	res.Predictions = len(preds)
	if runStats.Interrupted {
		log.Warn().Int("predictions", len(preds)).Msg("interrupted, writing predictions gathered so far")
	}

	res.OutputPath = outputPath(cfg.OutputPath, profile.OutputFile, cfg.Limit)
	if err := absa.WritePredictionsJSONL(res.OutputPath, preds); err != nil {
		return res, err
	}
	res.Written = true

	if runStats.OffTaxonomy > 0 {
		log.Warn().Int("off_taxonomy", runStats.OffTaxonomy).Msg("some predicted categories are outside the profile taxonomy; written unchanged")
	}
	log.Info().Str("out", res.OutputPath).Int("predictions", len(preds)).Int("ok", runStats.OK).
		Int("call_errors", runStats.CallErrors).Int("parse_errors", runStats.ParseErrors).
		Dur("elapsed", time.Since(start).Round(time.Second)).Msg("predictions written")
	return res, nil
}

// outputPath is <root>/subtask_3/<file>, with a test_limit_N_ prefix when a limit is set.
func outputPath(root, file string, limit int) string {
	if limit > 0 {
		file = fmt.Sprintf("test_limit_%d_%s", limit, file)
	}
	return filepath.Join(root, "subtask_3", file)
}
