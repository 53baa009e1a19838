package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/egfrsim/internal/config"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	// run configuration
	configFile string
	preset     string
	radius     float64
	dr         float64
	finalTime  float64
	samples    int
	dt         float64
	maxIter    int
	tolerance  float64
	confine    bool
	sampling   string
	paramSets  []string

	metricSet string
	noSave    bool
	watch     bool
	frameRate int
	workers   int

	// analysis
	sweepParams []string
	sweepMetric string
	maximize    bool
	doseLo      float64
	doseHi      float64
	doseSteps   int
	sensParams  []string
	sensStep    float64
	trials      int
	perturb     float64
	seed        int64
	outDir      string
	species     string
)

// main registers the commands and flags of the egfrsim CLI and exits with
// status 1 when the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "egfrsim",
		Short: "spatial EGFR / SHP2 signaling simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".egfrsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&metricSet, "metrics", "default", "metric set")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&watch, "watch", false, "redraw the profile while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 10, "frame rate for --watch")
	runCmd.Flags().StringVar(&species, "species", "shp2", "species drawn by --watch")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with the live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&metricSet, "metrics", "default", "metric set")
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and config",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run readouts in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	plotPNGCmd := &cobra.Command{
		Use:   "plot-png [run_id]",
		Short: "render readout, membrane and profile plots to image files",
		Args:  cobra.ExactArgs(1),
		RunE:  plotImages,
	}
	plotPNGCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	plotPNGCmd.Flags().StringVar(&species, "species", "shp2", "species for the profile plot")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run readouts to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over kinetic parameters",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "range", nil, "parameter range name=lo:hi:n (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "peak_shp2", "metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all CPUs)")

	doseCmd := &cobra.Command{
		Use:   "dose [param]",
		Short: "dose-response of the SHP2 fraction over one kinetic parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runDose,
	}
	addRunFlags(doseCmd)
	doseCmd.Flags().Float64Var(&doseLo, "lo", 0, "lowest value")
	doseCmd.Flags().Float64Var(&doseHi, "hi", 2, "highest value")
	doseCmd.Flags().IntVar(&doseSteps, "steps", 11, "number of values")
	doseCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all CPUs)")

	sensCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "normalized sensitivity of the final SHP2 fraction",
		Args:  cobra.NoArgs,
		RunE:  runSensitivity,
	}
	addRunFlags(sensCmd)
	sensCmd.Flags().StringSliceVar(&sensParams, "params", nil, "kinetic parameters (default all)")
	sensCmd.Flags().Float64Var(&sensStep, "step", 0.1, "relative perturbation")
	sensCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all CPUs)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "runs with randomly perturbed initial totals",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addRunFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "relative perturbation of initial totals")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	mcCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all CPUs)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the solver over grid spacings",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	addRunFlags(benchCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, showCmd, plotCmd, plotPNGCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, sweepCmd, doseCmd, sensCmd,
		mcCmd, batchCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&radius, "radius", config.DefaultRadius, "cell radius")
	f.Float64Var(&dr, "dr", config.DefaultDr, "grid spacing")
	f.Float64Var(&finalTime, "time", config.DefaultFinalTime, "final time")
	f.IntVar(&samples, "samples", config.DefaultNumSamples, "number of output samples")
	f.Float64Var(&dt, "dt", 0, "time step (0 = derived)")
	f.IntVar(&maxIter, "max-iter", 0, "membrane coupling iteration cap")
	f.Float64Var(&tolerance, "tol", 0, "membrane coupling tolerance")
	f.BoolVar(&confine, "confine", false, "confine the activated kinase to the membrane")
	f.StringVar(&sampling, "sampling", "interval", "sampling policy (interval, stride)")
	f.StringArrayVar(&paramSets, "param", nil, "kinetic parameter override name=value (repeatable)")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("radius") {
		cfg.Grid.Radius = radius
	}
	if flags.Changed("dr") {
		cfg.Grid.Dr = dr
	}
	if flags.Changed("time") {
		cfg.Time.Final = finalTime
	}
	if flags.Changed("samples") {
		cfg.Time.Samples = samples
	}
	if flags.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if flags.Changed("sampling") {
		cfg.Time.Sampling = sampling
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIter = maxIter
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("confine") {
		cfg.Solver.ConfineActiveSFK = confine
	}
	for _, kv := range paramSets {
		name, value, err := parseAssignment(kv)
		if err != nil {
			return nil, err
		}
		if err := cfg.Kinetics.SetParam(name, value); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func parseAssignment(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected name=value, got %q", kv)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parameter %s: %w", name, err)
	}
	return strings.TrimSpace(name), v, nil
}

// parseRange reads name=lo:hi:n into n evenly spaced values.
func parseRange(arg string) (string, []float64, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("expected name=lo:hi:n, got %q", arg)
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("expected lo:hi:n in %q", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	if n < 1 {
		return "", nil, fmt.Errorf("range %s needs at least one value", name)
	}
	values := make([]float64, n)
	for i := range values {
		if n == 1 {
			values[i] = lo
			continue
		}
		values[i] = lo + float64(i)*(hi-lo)/float64(n-1)
	}
	return name, values, nil
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format: %s", format)
}
