package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/theimaginaryfoundation/dimabsa/absa"
	"github.com/theimaginaryfoundation/dimabsa/absa/logging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	valenceColor = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	arousalColor = color.RGBA{R: 240, G: 128, B: 128, A: 255}
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
	log, err := logging.New("va-plot", logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	written, err := plotDistributions(cfg, log)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("in", cfg.InputPath).Msg("input file not found")
		} else {
			log.Error().Err(err).Msg("plotting failed")
		}
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "charts_written=%d valence_out=%s arousal_out=%s\n", len(written), cfg.ValenceOut, cfg.ArousalOut)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Labeled training JSONL ({ID, Text, Quadruplet} per line)")
	fs.StringVar(&cfg.ValenceOut, "valence-out", cfg.ValenceOut, "PNG file for the valence histogram")
	fs.StringVar(&cfg.ArousalOut, "arousal-out", cfg.ArousalOut, "PNG file for the arousal histogram")
	fs.Float64Var(&cfg.BinSize, "bin-size", cfg.BinSize, "Histogram bin width on the 1-9 scale")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "Log JSON lines instead of console output")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/va-plot -in ./dataset/zho_laptop_train_alltasks.jsonl -bin-size 0.5")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InputPath = filepath.Clean(cfg.InputPath)
	return cfg, nil
}

// plotDistributions renders one histogram per dimension and returns the files written. No score rows
// means no charts and no error.
func plotDistributions(cfg Config, log zerolog.Logger) ([]string, error) {
	ts, err := absa.LoadTrainingSet(cfg.InputPath, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("in", cfg.InputPath).Int("scores", len(ts.Rows)).Msg("extracted VA scores")
	if len(ts.Rows) == 0 {
		log.Warn().Msg("no VA scores, nothing to plot")
		return nil, nil
	}

	charts := []struct {
		dim   absa.Dimension
		title string
		path  string
		color color.Color
	}{
		{absa.Valence, "Valence (Pleasure Score)", cfg.ValenceOut, valenceColor},
		{absa.Arousal, "Arousal (Activation Score)", cfg.ArousalOut, arousalColor},
	}

	var written []string
	for _, c := range charts {
		values := make([]float64, len(ts.Rows))
		for i, r := range ts.Rows {
			values[i] = r.Value(c.dim)
		}
		bins, err := absa.BinScores(values, absa.MinScore, absa.MaxScore, cfg.BinSize)
		if err != nil {
			return written, err
		}
		if len(bins) == 0 {
			log.Warn().Str("dimension", c.dim.String()).Msg("all scores outside the 1-9 range, chart skipped")
			continue
		}
		title := fmt.Sprintf("%s Score Distribution (Bin Size: %s)", c.title, strconv.FormatFloat(cfg.BinSize, 'f', -1, 64))
		if err := renderHistogram(bins, title, c.path, c.color); err != nil {
			return written, fmt.Errorf("%s chart: %w", c.dim, err)
		}
		written = append(written, c.path)
		log.Info().Str("dimension", c.dim.String()).Int("bins", len(bins)).Str("out", c.path).Msg("saved chart")
	}
	return written, nil
}

func renderHistogram(bins []absa.Bin, title, path string, fill color.Color) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.X.Label.Text = "Score Range"
	p.Y.Label.Text = "Count"

	values := make(plotter.Values, len(bins))
	labels := make([]string, len(bins))
	counts := plotter.XYLabels{XYs: make(plotter.XYs, len(bins)), Labels: make([]string, len(bins))}
	for i, b := range bins {
		values[i] = float64(b.Count)
		labels[i] = b.Label()
		counts.XYs[i] = plotter.XY{X: float64(i), Y: float64(b.Count)}
		counts.Labels[i] = strconv.Itoa(b.Count)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(16))
	if err != nil {
		return err
	}
	bars.Color = fill
	bars.LineStyle.Width = vg.Length(0.5)

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}

	countLabels, err := plotter.NewLabels(counts)
	if err != nil {
		return err
	}
	for i := range countLabels.TextStyle {
		countLabels.TextStyle[i].XAlign = draw.XCenter
		countLabels.TextStyle[i].YAlign = draw.YBottom
	}

	p.Add(grid, bars, countLabels)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 7*vg.Inch, path)
}
