package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/egfrsim/internal/analysis"
	"github.com/san-kum/egfrsim/internal/automation"
	"github.com/san-kum/egfrsim/internal/config"
	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/experiment"
	"github.com/san-kum/egfrsim/internal/export"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/optim"
	"github.com/san-kum/egfrsim/internal/sim"
	"github.com/san-kum/egfrsim/internal/storage"
	"github.com/san-kum/egfrsim/internal/store"
	"github.com/san-kum/egfrsim/internal/tui"
	"github.com/san-kum/egfrsim/internal/viz"
)

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	metrics, err := registry.GetMetrics(metricSet)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(metrics, slog.Default()); err != nil {
		return err
	}
	if watch {
		sp, err := model.ParseSpecies(species)
		if err != nil {
			return err
		}
		r := tui.NewLiveRenderer(os.Stdout, cfg.Name, sp, frameRate)
		r.Start()
		defer r.Stop()
		exp.GetSimulator().AddObserver(r)
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("running %s simulation...\n", cfg.Name)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printSummary(result, elapsed)
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	metrics, err := experiment.NewRegistry().GetMetrics(metricSet)
	if err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	// The live view owns the terminal; keep log output off it.
	s := sim.New(cfg.Params())
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, m := range metrics {
		s.AddMetric(m)
	}

	result, runErr := viz.Run(context.Background(), cfg.Name, s, cfg.Initial, simCfg)
	if result == nil || errors.Is(runErr, context.Canceled) {
		return nil
	}
	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return runErr
}

func printSummary(result *sim.Result, elapsed time.Duration) {
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d (dt=%.4g)\n", result.Steps, result.Dt)
	fmt.Printf("samples: %d\n", result.Samples())
	d := result.Diagnostics
	fmt.Printf("coupling: mean %.2f iterations, max %d, non-converged steps %d\n",
		d.MeanIterations(), d.MaxIterations, d.NonConvergedSteps)
	if k := result.Samples(); k > 0 {
		shp2, phospho := result.Readouts(k - 1)
		fmt.Printf("final readouts: shp2=%.6f phospho=%.6f\n", shp2, phospho)
	}

	if len(result.Metrics) == 0 {
		return
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFINAL\tDT\tSAMPLES\tCONFINED\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if len(run.Errors) > 0 {
			status = "errors"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4g\t%.4g\t%d\t%v\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.FinalTime,
			run.Dt,
			run.Samples,
			run.Confined,
			status,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(struct {
		Run    *storage.RunMetadata `yaml:"run"`
		Config *config.Config       `yaml:"config"`
	}{meta, cfg})
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadReadouts(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	shp2 := make([]float64, len(rows))
	phospho := make([]float64, len(rows))
	times := make([]float64, len(rows))
	for i, r := range rows {
		shp2[i], phospho[i], times[i] = r.SHP2Fraction, r.PhosphoFraction, r.Time
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("samples: %d, t = %.4g .. %.4g\n\n", len(rows), times[0], times[len(times)-1])
	for _, s := range []struct {
		data    []float64
		caption string
	}{
		{shp2, "SHP2 fraction vs time"},
		{phospho, "phosphorylated receptor fraction vs time"},
	} {
		fmt.Println(asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}

	if t, ok := analysis.HalfMaxTime(times, shp2); ok {
		fmt.Printf("SHP2 half-max reached at t=%.4g\n", t)
	}
	fmt.Println("\nphospho vs SHP2:")
	fmt.Print(analysis.PortraitToASCII(analysis.NewPortrait("phospho", phospho, "shp2", shp2), 60, 16))
	return nil
}

func plotImages(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	data, err := st.LoadProfiles(runID)
	if err != nil {
		return err
	}
	sp, err := model.ParseSpecies(species)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	writes := []struct {
		name   string
		render func(path string) error
	}{
		{runID + "_readouts.png", func(path string) error {
			p, err := export.Readouts(data)
			if err != nil {
				return err
			}
			return export.Save(p, path)
		}},
		{runID + "_membrane.png", func(path string) error {
			p, err := export.Membrane(data)
			if err != nil {
				return err
			}
			return export.Save(p, path)
		}},
		{runID + "_" + sp.String() + "_profile.png", func(path string) error {
			p, err := export.Profile(data, sp, 8)
			if err != nil {
				return err
			}
			return export.Save(p, path)
		}},
	}
	for _, w := range writes {
		path := filepath.Join(outDir, w.name)
		if err := w.render(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadReadouts(runID)
	if err != nil {
		return err
	}
	return gocsv.Marshal(rows, os.Stdout)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	data, err := st.LoadProfiles(runID)
	if err != nil {
		return err
	}
	return store.Encode(os.Stdout, data)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("presets:")
		for _, name := range config.ListPresets() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --range is required")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	names := make([]string, len(sweepParams))
	ranges := make([][]float64, len(sweepParams))
	for i, arg := range sweepParams {
		if names[i], ranges[i], err = parseRange(arg); err != nil {
			return err
		}
	}

	search := optim.NewGridSearch(names, ranges).Workers(workers)
	if maximize {
		search.Maximize()
	}

	registry := experiment.NewRegistry()
	ctx, cancel := interruptible()
	defer cancel()

	best, points, err := search.Search(ctx, cfg.Params(), cfg.Initial, simCfg, registry.DefaultMetrics, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := ""
	for _, n := range names {
		header += n + "\t"
	}
	fmt.Fprintln(w, header+sweepMetric+"\tSTATUS")
	for _, p := range points {
		line := ""
		for _, n := range names {
			line += fmt.Sprintf("%.4g\t", p.Params[n])
		}
		status := "ok"
		if p.Err != nil {
			status = p.Err.Error()
		}
		fmt.Fprintf(w, "%s%.6g\t%s\n", line, p.Value, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", sweepMetric, best.Value)
	for _, n := range names {
		fmt.Printf(" %s=%.4g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}

func runDose(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	ctx, cancel := interruptible()
	defer cancel()

	points, err := analysis.DoseResponse(ctx, cfg.Params(), cfg.Initial, simCfg, args[0], doseLo, doseHi, doseSteps, workers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK_SHP2\tFINAL_SHP2\tFINAL_PHOSPHO\tSTATUS\n", args[0])
	for _, p := range points {
		status := "ok"
		if p.Err != nil {
			status = p.Err.Error()
		}
		fmt.Fprintf(w, "%.4g\t%.6f\t%.6f\t%.6f\t%s\n", p.Param, p.PeakSHP2, p.FinalSHP2, p.FinalPhospho, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nfinal SHP2 fraction vs %s:\n", args[0])
	fmt.Print(analysis.DoseToASCII(points, 60, 12))
	return nil
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	names := sensParams
	if len(names) == 0 {
		names = model.KineticNames()
	}
	ctx, cancel := interruptible()
	defer cancel()

	entries, err := analysis.Sensitivity(ctx, cfg.Params(), cfg.Initial, simCfg, names, sensStep, workers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tSENSITIVITY")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%+.4f\n", e.Name, e.Value)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := interruptible()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
		Workers:      workers,
	}, experiment.NewRegistry().DefaultMetrics, slog.Default())
	if err != nil {
		return err
	}

	final := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Result != nil && r.Result.Samples() > 0 {
			final = append(final, r.Result.SHP2Fraction[r.Result.Samples()-1])
		}
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d stable, %d unstable\n", stable, unstable)
	if len(final) > 0 {
		sort.Float64s(final)
		fmt.Printf("final SHP2 fraction: min %.6f, median %.6f, max %.6f\n",
			final[0], final[len(final)/2], final[len(final)-1])
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	ctx, cancel := interruptible()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st, slog.Default())
	for _, r := range results {
		shp2, phospho := 0.0, 0.0
		if k := r.Result.Samples(); k > 0 {
			shp2, phospho = r.Result.Readouts(k - 1)
		}
		id := r.RunID
		if id == "" {
			id = "(not saved)"
		}
		fmt.Printf("%-24s %-40s shp2=%.6f phospho=%.6f\n", r.Name, id, shp2, phospho)
	}
	return err
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	spacings := []float64{0.1, 0.05, 0.025}
	fmt.Printf("benchmarking %s\n\n", cfg.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DR\tNODES\tDT\tSTEPS\tTIME\tSTEPS/SEC\tMEAN_ITER")
	for _, h := range spacings {
		c := cfg.Clone()
		c.Grid.Dr = h
		simCfg, err := c.SimConfig()
		if err != nil {
			return err
		}
		s := sim.New(c.Params())
		s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

		start := time.Now()
		result, err := s.Run(context.Background(), c.Initial, simCfg)
		if err != nil && !errors.Is(err, dynamo.ErrUnstable) {
			return err
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%.4g\t%d\t%.3g\t%d\t%v\t%.0f\t%.2f\n",
			h, result.Grid.Len(), result.Dt, result.Steps, elapsed,
			float64(result.Steps)/elapsed.Seconds(), result.Diagnostics.MeanIterations())
	}
	return w.Flush()
}
