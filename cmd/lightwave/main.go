package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"libdb.so/lightwave"
	"libdb.so/lightwave/internal/ledvis"
)

var (
	config   = "lightwave.toml"
	verbose  = false
	list     = false
	simulate = 0
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.BoolVarP(&list, "list", "l", list, "list the available effects and exit")
	pflag.IntVar(&simulate, "simulate", simulate, "render this many frames without a controller and print a report")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if list {
		return listEffects()
	}

	cfg, err := readConfig()
	if err != nil {
		return err
	}

	if simulate > 0 {
		return runSimulation(cfg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// TODO: add a file detector for when /dev/ttyUSB0 is not available, and
	// automatically start the daemon when it is available.

	d, err := lightwave.NewDaemon(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

func listEffects() error {
	registry := ledvis.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDESCRIPTION")
	for _, id := range registry.IDs() {
		meta, _ := registry.Metadata(id)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", id, meta.Name, meta.Category, meta.Description)
	}
	return w.Flush()
}

func runSimulation(cfg *lightwave.Config) error {
	report, err := lightwave.Simulate(cfg, ledvis.NewRegistry(), slog.Default(), simulate)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	fmt.Printf("effect:      %s\n", cfg.Effect)
	fmt.Printf("frames:      %d\n", report.Frames)
	fmt.Printf("audio hops:  %d\n", report.Hops)
	fmt.Printf("beats:       %d\n", report.Beats)
	fmt.Printf("mean level:  %.3f (stddev %.3f)\n", report.MeanLevel, report.StdDevLevel)
	fmt.Printf("peak level:  %.3f at frame %d\n", report.PeakLevel, report.PeakFrame)
	fmt.Printf("asymmetric:  %d\n", report.Asymmetric)

	if report.Asymmetric > 0 {
		return fmt.Errorf("%d frames were not mirrored", report.Asymmetric)
	}
	return nil
}

// readConfig reads the configuration file. A missing file is only an error
// when driving real hardware.
func readConfig() (*lightwave.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		if simulate > 0 && errors.Is(err, fs.ErrNotExist) {
			cfg := lightwave.DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return lightwave.ParseConfig(f)
}
