// Command drawdown runs a one-shot analysis: it loads a single-column CSV
// of storage values, extracts the drawdown events, prints a summary, and
// writes the event table next to the input as <name>_output.csv.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hydrolab/drawdown/internal/config"
	"github.com/hydrolab/drawdown/internal/csvio"
	"github.com/hydrolab/drawdown/internal/drawdown"
	"github.com/hydrolab/drawdown/internal/logger"
	"github.com/hydrolab/drawdown/internal/stats"
	"github.com/hydrolab/drawdown/internal/storage"
)

var (
	configPath = flag.String("config", "", "Optional path to configuration file")
	inputPath  = flag.String("input", "", "Path to single-column CSV of storage values")
	outputPath = flag.String("output", "", "Path for the event table (default <input>_output.csv)")
	threshold  = flag.Float64("threshold", 0, "Minimum magnitude for exported events")
	epsilon    = flag.Float64("epsilon", 0, "Recovery tolerance (value >= peak - epsilon)")
	persist    = flag.Bool("persist", false, "Also save the run to the configured database")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	input := *inputPath
	eps := *epsilon
	thr := *threshold
	level := *logLevel
	dbPath := ""

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if input == "" {
			input = cfg.Input.Path
		}
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["epsilon"] {
			eps = cfg.Analysis.Epsilon
		}
		if !set["threshold"] {
			thr = cfg.Analysis.Threshold
		}
		if !set["log-level"] {
			level = cfg.Logging.Level
		}
		dbPath = cfg.Storage.DBPath
	}

	if input == "" {
		fmt.Fprintln(os.Stderr, "Usage: drawdown -input <series.csv> [-output <events.csv>] [-threshold N] [-epsilon N]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := logger.Init(level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	s, err := csvio.LoadSeries(input)
	if err != nil {
		logger.Fatalf("Failed to load series: %v", err)
	}
	logger.Infof("Loaded %d points from %s", len(s), input)

	extractor, err := drawdown.NewExtractor(s, drawdown.ExtractorConfig{
		Epsilon: eps,
		Progress: func(done, total int) {
			logger.Debugf("Extracted event %d/%d", done, total)
		},
	})
	if err != nil {
		logger.Fatalf("Invalid extraction parameters: %v", err)
	}
	collection, err := extractor.Extract()
	if err != nil {
		logger.Fatalf("Extraction failed: %v", err)
	}
	logger.Infof("Found %d drawdown events", collection.Len())

	if mags, err := collection.Column(drawdown.ColMagnitude); err == nil && len(mags) > 0 {
		summary := stats.Describe(mags)
		logger.Infof("Magnitude: mean=%.3f std=%.3f min=%.3f median=%.3f max=%.3f",
			summary.Mean, summary.Std, summary.Min, summary.Median, summary.Max)
	}

	out := *outputPath
	if out == "" {
		out = defaultOutputPath(input)
	}
	if err := csvio.WriteEvents(out, collection, thr); err != nil {
		logger.Fatalf("Failed to write event table: %v", err)
	}
	logger.Infof("Wrote event table to %s (threshold %g)", out, thr)

	if *persist {
		if dbPath == "" {
			logger.Fatalf("-persist requires a config file with storage.db_path")
		}
		store, err := storage.Open(dbPath)
		if err != nil {
			logger.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		run := storage.Run{
			ID:        uuid.New().String(),
			Source:    input,
			SeriesLen: len(s),
			Epsilon:   eps,
			CreatedAt: time.Now(),
		}
		if err := store.SaveRun(run, collection.Events()); err != nil {
			logger.Fatalf("Failed to save run: %v", err)
		}
		logger.Infof("Saved run %s to %s", run.ID, dbPath)
	}
}

// defaultOutputPath mirrors the conventional <name>_output.csv naming.
func defaultOutputPath(input string) string {
	base := strings.TrimSuffix(input, ".csv")
	return base + "_output.csv"
}
