package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/theimaginaryfoundation/dimabsa/absa"
	"github.com/theimaginaryfoundation/dimabsa/absa/logging"
	"gonum.org/v1/gonum/stat"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	log, err := logging.New("va-stats", logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	res, err := extractExamples(cfg, log)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("in", cfg.InputPath).Msg("input file not found")
		} else {
			log.Error().Err(err).Msg("statistics extraction failed")
		}
		os.Exit(1)
	}
	if len(res.Outputs) == 0 {
		fmt.Fprintf(os.Stdout, "rows=0 records=%d files_written=0\n", res.Records)
		return
	}
	fmt.Fprintf(os.Stdout, "rows=%d records=%d valence_examples=%d arousal_examples=%d valence_out=%s arousal_out=%s\n",
		res.Rows, res.Records, res.Selected[absa.Valence], res.Selected[absa.Arousal], cfg.ValenceOut, cfg.ArousalOut)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Labeled training JSONL ({ID, Text, Quadruplet} per line)")
	fs.StringVar(&cfg.ValenceOut, "valence-out", cfg.ValenceOut, "Output JSONL for the valence landmark records")
	fs.StringVar(&cfg.ArousalOut, "arousal-out", cfg.ArousalOut, "Output JSONL for the arousal landmark records")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "Log JSON lines instead of console output")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/va-stats -in ./dataset/zho_restaurant_train_alltasks.jsonl")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputPath = filepath.Clean(cfg.InputPath)
	return cfg, nil
}

type extractResult struct {
	Rows     int
	Records  int
	Selected map[absa.Dimension]int
	Outputs  []string
}

// extractExamples loads the training file and writes one landmark-record file per dimension. With no
// usable score rows it writes nothing and returns no error.
func extractExamples(cfg Config, log zerolog.Logger) (extractResult, error) {
	res := extractResult{Selected: map[absa.Dimension]int{}}

	ts, err := absa.LoadTrainingSet(cfg.InputPath, log)
	if err != nil {
		return res, err
	}
	res.Rows = len(ts.Rows)
	res.Records = len(ts.Cache)
	log.Info().Str("in", cfg.InputPath).Int("quadruplets", len(ts.Rows)).Int("records", len(ts.Cache)).
		Int("malformed_lines", ts.Stats.Malformed).Int("skipped_quadruplets", ts.Stats.SkippedQuadruplets).
		Msg("extracted score rows and cached records")

	if len(ts.Rows) == 0 || len(ts.Cache) == 0 {
		log.Warn().Msg("no score rows, nothing to analyse")
		return res, nil
	}

	outputs := []struct {
		dim  absa.Dimension
		path string
	}{
		{absa.Valence, cfg.ValenceOut},
		{absa.Arousal, cfg.ArousalOut},
	}
	for _, o := range outputs {
		sel, err := absa.SelectRepresentatives(ts.Rows, ts.Cache, o.dim)
		if err != nil {
			return res, fmt.Errorf("%s: %w", o.dim, err)
		}
		logSelection(log, ts.Rows, sel)

		if err := absa.WriteRecordsJSONL(o.path, sel.Records); err != nil {
			return res, fmt.Errorf("%s: %w", o.dim, err)
		}
		res.Selected[o.dim] = len(sel.Records)
		res.Outputs = append(res.Outputs, o.path)
		log.Info().Str("dimension", o.dim.String()).Int("records", len(sel.Records)).Str("out", o.path).Msg("wrote landmark examples")
	}
	return res, nil
}

func logSelection(log zerolog.Logger, rows []absa.ScoreRow, sel absa.Selection) {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value(sel.Dimension)
	}
	mean, std := stat.MeanStdDev(values, nil)
	log.Info().Str("dimension", sel.Dimension.String()).Int("count", len(values)).
		Float64("mean", mean).Float64("std", std).Msg("score summary")

	for _, lm := range sel.Landmarks {
		ev := log.Info().Str("dimension", sel.Dimension.String()).Float64("percentile", lm.Percentile).Float64("target", lm.Target)
		switch {
		case lm.Skipped:
			ev.Msg("no row at or above target, landmark skipped")
		case lm.DuplicateValue:
			ev.Str("id", lm.Row.ID).Float64("value", lm.Row.Value(sel.Dimension)).Msg("value already selected, landmark skipped")
		default:
			ev.Str("id", lm.Row.ID).Float64("value", lm.Row.Value(sel.Dimension)).Msg("landmark selected")
		}
	}
}
