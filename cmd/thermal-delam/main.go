package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/baseline"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/batch"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/pipeline"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// logLevelEnv enables debug logging when set to "debug".
const logLevelEnv = "THERMAL_DELAM_LOG_LEVEL"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "thermal-delam %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return 0
		case "baseline":
			return runBaseline(args[1:], stdout, stderr)
		}
	}
	return runDetect(args, stdout, stderr)
}

// detectOptions holds the parsed flags of the detection command.
type detectOptions struct {
	input      string
	output     string
	configPath string
	workers    int
	saveMasks  bool
	debug      bool
	serve      bool
	overrides  pipeline.Overrides
}

func parseDetectFlags(args []string, stderr io.Writer) (*detectOptions, error) {
	o := &detectOptions{}
	fs := flag.NewFlagSet("thermal-delam", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "thermal-delam - flag thermal hotspots in drone imagery")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  thermal-delam --input <folder> [options]")
		fmt.Fprintln(stderr, "  thermal-delam --serve [options]")
		fmt.Fprintln(stderr, "  thermal-delam baseline --input <csv> [--threshold 3] [--window 10] [--output <csv>]")
		fmt.Fprintln(stderr, "  thermal-delam --version")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Environment variables:")
		fmt.Fprintf(stderr, "  %s=debug    Enable debug logging\n", logLevelEnv)
	}

	fs.StringVar(&o.input, "input", "", "Folder containing thermal images")
	fs.StringVar(&o.input, "i", "", "Shorthand for --input")
	fs.StringVar(&o.output, "output", "", "Output folder (default <input>/processed)")
	fs.StringVar(&o.output, "o", "", "Shorthand for --output")
	fs.StringVar(&o.configPath, "config", "", "YAML file with detection settings; flags take precedence")
	fs.IntVar(&o.workers, "workers", 1, "Images processed concurrently")
	fs.BoolVar(&o.saveMasks, "save-masks", false, "Also save each hotspot mask as <name>_mask.png")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.serve, "serve", false, "Run as an MCP server on stdin/stdout")

	percentile := fs.Float64("hotspot-percentile", pipeline.DefaultHotspotPercentile, "Percentile used as the hotspot threshold [50,100]")
	minCluster := fs.Int("min-cluster-size", pipeline.DefaultMinClusterSize, "Smallest hotspot kept, in pixels [1,10000]")
	opening := fs.Int("opening-iterations", pipeline.DefaultOpeningIterations, "Morphological opening passes [0,5]")
	closing := fs.Int("closing-iterations", pipeline.DefaultClosingIterations, "Morphological closing passes [0,5]")
	kernel := fs.Int("kernel-size", pipeline.DefaultKernelSize, "Structuring element size, odd [3,9]")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	// Only flags given on the command line override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hotspot-percentile":
			o.overrides.HotspotPercentile = percentile
		case "min-cluster-size":
			o.overrides.MinClusterSize = minCluster
		case "opening-iterations":
			o.overrides.OpeningIterations = opening
		case "closing-iterations":
			o.overrides.ClosingIterations = closing
		case "kernel-size":
			o.overrides.KernelSize = kernel
		}
	})

	if !o.serve && o.input == "" {
		return nil, errors.New("--input is required")
	}
	return o, nil
}

// initLogger configures the logger: text with full timestamps in debug mode,
// JSON otherwise.
func initLogger(debugMode bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// resolveConfig layers the config file and flag overrides over the defaults.
// Unknown keys in the file are logged and ignored.
func resolveConfig(o *detectOptions, logger logrus.FieldLogger) (pipeline.Config, error) {
	overrides := o.overrides
	if o.configPath != "" {
		file, err := pipeline.LoadOverrides(o.configPath)
		if errors.Is(err, pipeline.ErrInvalidConfig) {
			logger.WithField("config", o.configPath).WithError(err).Warn("ignoring unknown configuration keys")
		} else if err != nil {
			return pipeline.Config{}, err
		}
		overrides = file.Merge(o.overrides)
	}
	return overrides.Apply(pipeline.DefaultConfig()), nil
}

func runDetect(args []string, stdout, stderr io.Writer) int {
	o, err := parseDetectFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// In server mode stdout carries the protocol.
	logOut := stdout
	if o.serve {
		logOut = stderr
	}
	logger := initLogger(o.debug || os.Getenv(logLevelEnv) == "debug", logOut)

	cfg, err := resolveConfig(o, logger)
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		return 1
	}
	logger.WithFields(logrus.Fields{
		"hotspot_percentile": cfg.HotspotPercentile,
		"min_cluster_size":   cfg.MinClusterSize,
		"opening_iterations": cfg.OpeningIterations,
		"closing_iterations": cfg.ClosingIterations,
		"kernel_size":        cfg.KernelSize,
	}).Debug("configuration resolved")

	proc := pipeline.New(cfg, logger)

	if o.serve {
		logger.WithFields(logrus.Fields{
			"version": Version,
			"built":   BuildTime,
			"commit":  GitCommit,
		}).Debug("starting MCP server")
		if err := server.New(proc, logger, Version).Run(); err != nil {
			logger.WithError(err).Error("server error")
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := batch.Run(ctx, proc, batch.Options{
		Input:     o.input,
		Output:    o.output,
		Workers:   o.workers,
		SaveMasks: o.saveMasks,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("batch failed")
		return 1
	}
	if len(report.Processed) == 0 {
		logger.WithField("failed", len(report.Failed)).Error("no images were processed")
		return 1
	}
	return 0
}

func runBaseline(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("baseline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "CSV file with a 'temperature' column")
	threshold := fs.Float64("threshold", baseline.DefaultThreshold, "Temperature rise above the rolling baseline considered anomalous")
	window := fs.Int("window", baseline.DefaultWindow, "Readings in the rolling baseline")
	output := fs.String("output", "", "Output CSV (default <input>_delam_candidates.csv)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *input == "" {
		fmt.Fprintln(stderr, "Error: --input is required")
		return 2
	}

	ms, err := baseline.LoadMeasurements(*input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	ds, err := baseline.Detect(ms, *window, *threshold)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if len(ds) == 0 {
		fmt.Fprintln(stdout, "No readings exceeded the specified threshold.")
		return 0
	}

	dest := *output
	if dest == "" {
		dest = baseline.DefaultOutputPath(*input)
	}
	if err := baseline.SaveDetections(dest, ds); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Flagged %d readings. Results saved to %s.\n", len(ds), dest)
	return 0
}
