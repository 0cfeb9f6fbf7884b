package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tsawler/accessify"
	"github.com/tsawler/accessify/config"
)

type options struct {
	grid          int
	merge         int
	overlapImages bool
	quiet         bool
	verbose       bool
	files         []string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "accessify: %v\n", err)
		os.Exit(2)
	}
	opts, err := parseFlags(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "accessify: %v\n", err)
		os.Exit(2)
	}
	if failed := run(opts, newLogger(cfg, opts)); failed > 0 {
		os.Exit(1)
	}
}

func parseFlags(cfg config.Config) (options, error) {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: accessify [flags] <file.pdf|file.docx|file.pptx>...\n")
		flag.PrintDefaults()
	}
	grid := flag.Int("grid", cfg.GridSize, "Snap grid size in points (5-50)")
	merge := flag.Int("merge", cfg.MergeThreshold, "Block merge distance in points (5-50)")
	overlap := flag.Bool("overlap-images", false, "Assign image payloads by area overlap instead of document order")
	quiet := flag.Bool("quiet", false, "Log errors only")
	verbose := flag.Bool("v", false, "Log per-page detail")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return options{}, fmt.Errorf("no input files")
	}
	return options{
		grid:          *grid,
		merge:         *merge,
		overlapImages: *overlap,
		quiet:         *quiet,
		verbose:       *verbose,
		files:         flag.Args(),
	}, nil
}

// newLogger builds the root logger from the config, with the quiet and
// verbose flags taking precedence over the configured level.
func newLogger(cfg config.Config, opts options) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	switch {
	case opts.quiet:
		level = logrus.ErrorLevel
	case opts.verbose:
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// run converts each input in order and reports how many failed. One bad file
// does not stop the rest of the batch.
func run(opts options, log *logrus.Logger) int {
	failed := 0
	for _, path := range opts.files {
		conv := accessify.Convert(path).
			GridSize(opts.grid).
			MergeThreshold(opts.merge).
			Logger(log)
		if opts.overlapImages {
			conv = conv.MatchImagesByOverlap()
		}

		out, warnings, err := conv.Run()
		if err != nil {
			log.WithField("input", path).WithError(err).Error("conversion failed")
			failed++
			continue
		}
		for _, w := range warnings {
			log.WithField("input", path).Warn(w.String())
		}
		log.WithFields(logrus.Fields{
			"input":    path,
			"output":   out,
			"warnings": len(warnings),
		}).Info("converted")
	}
	return failed
}
