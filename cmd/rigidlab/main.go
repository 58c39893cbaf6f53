package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidlab/internal/advance"
	"github.com/san-kum/rigidlab/internal/config"
	"github.com/san-kum/rigidlab/internal/export"
	"github.com/san-kum/rigidlab/internal/geom"
	"github.com/san-kum/rigidlab/internal/metrics"
	"github.com/san-kum/rigidlab/internal/scenario"
	"github.com/san-kum/rigidlab/internal/storage"
	"github.com/san-kum/rigidlab/internal/viz"
)

var (
	dataDir       string
	timestep      float64
	duration      float64
	seed          int64
	policy        string
	configFile    string
	preset        string
	outFile       string
	snapshotAt    float64
	snapshotTrace bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidlab",
		Short: "collision-aware rigid body simulation lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidlab", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args[0])
			if err != nil {
				return err
			}
			scene, err := buildScenario(cfg)
			if err != nil {
				return err
			}
			return viz.Run(scene)
		},
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [scenario]",
		Short: "run a scenario and export the trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	addSimFlags(exportCSVCmd)
	exportCSVCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [scenario]",
		Short: "run a scenario and export the full run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	addSimFlags(exportJSONCmd)
	exportJSONCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range scenario.List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scenario]",
		Short: "render a scenario as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotScenario,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")
	snapshotCmd.Flags().Float64Var(&snapshotAt, "at", 0, "simulated time of the snapshot")
	snapshotCmd.Flags().BoolVar(&snapshotTrace, "trace", false, "draw center-of-mass trajectories instead of body outlines")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [policy1] [policy2] ...",
		Short: "compare contact policies on the same scenario",
		Args:  cobra.MinimumNArgs(2),
		RunE:  comparePolicies,
	}
	compareCmd.Flags().Float64Var(&timestep, "dt", config.DefaultTimestep, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	compareCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "detector seed")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd,
		exportCSVCmd, exportJSONCmd, scenariosCmd, presetsCmd, snapshotCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&timestep, "dt", config.DefaultTimestep, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "detector seed")
	cmd.Flags().StringVar(&policy, "policy", "", "contact policy override")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig merges preset, config file and CLI flags, flags winning.
func resolveConfig(cmd *cobra.Command, scenarioName string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scenario = scenarioName

	if preset != "" {
		p := config.GetPreset(scenarioName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenarioName))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		loaded.Scenario = scenarioName
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Timestep = timestep
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("policy") {
		cfg.Policy = policy
	}
	return cfg, cfg.Validate()
}

// buildScenario constructs the scene and applies config overrides.
func buildScenario(cfg *config.Config) (*scenario.Scenario, error) {
	scene, err := scenario.New(cfg.Scenario, cfg.Seed)
	if err != nil {
		return nil, err
	}
	scene.Detector.SetTolerances(cfg.CollisionTolerances())
	if cfg.Policy != "" {
		p, err := cfg.ContactPolicy()
		if err != nil {
			return nil, err
		}
		scene.Policy = p
	}
	if cfg.JointSmallImpacts != nil {
		scene.JointSmallImpacts = *cfg.JointSmallImpacts
	}
	return scene, nil
}

// simulate runs the scene to the configured duration, recording every
// accepted sub-step and the standard metrics.
func simulate(scene *scenario.Scenario, cfg *config.Config) (*advance.Result, error) {
	adv := scene.NewAdvance()
	adv.SetTimeStep(cfg.Timestep)

	energy := metrics.NewEnergyDrift(scene.Sim)
	penetration := metrics.NewPenetration(scene.Sim, scene.Detector)
	momentum := metrics.NewMomentumDrift(scene.Sim)
	observe := func() {
		t := adv.Time()
		energy.Observe(t)
		penetration.Observe(t)
		momentum.Observe(t)
	}
	observe()

	rec := advance.NewRecorder(scene.Sim)
	adv.SetMemorizer(func() {
		rec.Record()
		observe()
	})

	var runErr error
	for adv.Time() < cfg.Duration {
		remaining := cfg.Duration - adv.Time()
		step := cfg.Timestep * 40
		if remaining < step {
			step = remaining
		}
		if err := adv.Advance(step); err != nil {
			runErr = err
			break
		}
	}

	result := rec.Finish(adv.Totals(), map[string]float64{
		energy.Name():      energy.Value(),
		penetration.Name(): penetration.Value(),
		momentum.Name():    momentum.Value(),
	})
	return result, runErr
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	scene, err := buildScenario(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s...\n", scene.Name)
	start := time.Now()
	result, runErr := simulate(scene, cfg)
	elapsed := time.Since(start)

	runID, err := st.Save(scene.Name, cfg.Timestep, cfg.Duration, cfg.Seed, scene.Policy.String(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Steps())
	fmt.Printf("collisions: %d (searches: %d)\n", result.Totals.Collisions, result.Totals.Searches)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	if runErr != nil {
		fmt.Printf("\nstopped early: %v\n", runErr)
	}
	return nil
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tPOLICY\tCOLLISIONS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Timestep,
			run.Policy,
			run.Collisions,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	// plot each free body's height over time
	slots := [...]string{"x", "vx", "y", "vy", "angle", "w"}
	numBodies := len(states[0]) / 6
	plotted := 0
	for b := 0; b < numBodies && plotted < 4; b++ {
		col := b*6 + 2 // the y slot
		data := make([]float64, len(states))
		still := true
		for i := range states {
			data[i] = states[i][col]
			if data[i] != data[0] {
				still = false
			}
		}
		if still {
			continue // anchored or never moved, nothing to see
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d %s vs step", b, slots[2])),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++
	}
	if plotted == 0 {
		fmt.Println("nothing moved in this run")
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func outWriter() (*os.File, func(), error) {
	if outFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	scene, err := buildScenario(cfg)
	if err != nil {
		return err
	}
	result, runErr := simulate(scene, cfg)

	w, closer, err := outWriter()
	if err != nil {
		return err
	}
	defer closer()
	if err := storage.ExportCSV(w, result); err != nil {
		return err
	}
	return runErr
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	scene, err := buildScenario(cfg)
	if err != nil {
		return err
	}
	result, runErr := simulate(scene, cfg)

	w, closer, err := outWriter()
	if err != nil {
		return err
	}
	defer closer()
	if err := storage.ExportJSON(w, scene.Name, scene.Policy.String(), cfg.Timestep, cfg.Duration, cfg.Seed, result); err != nil {
		return err
	}
	return runErr
}

func snapshotScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	scene, err := buildScenario(cfg)
	if err != nil {
		return err
	}

	w, closer, err := outWriter()
	if err != nil {
		return err
	}
	defer closer()

	if snapshotTrace {
		cfg.Duration = snapshotAt
		if snapshotAt == 0 {
			cfg.Duration = config.DefaultDuration
		}
		result, runErr := simulate(scene, cfg)
		traces := make([][]geom.Vec, len(scene.Sim.Bodies()))
		for b := range traces {
			for _, s := range result.States {
				traces[b] = append(traces[b], geom.V(s[b*6], s[b*6+2]))
			}
		}
		if _, err := fmt.Fprintln(w, export.TrajectorySVG(traces, 800, 600, "#00ff00")); err != nil {
			return err
		}
		return runErr
	}

	var runErr error
	if snapshotAt > 0 {
		adv := scene.NewAdvance()
		adv.SetTimeStep(cfg.Timestep)
		runErr = adv.Advance(snapshotAt)
	}
	if _, err := fmt.Fprintln(w, export.SceneSVG(scene.Sim.Bodies(), 800, 600, 0.5)); err != nil {
		return err
	}
	return runErr
}

func comparePolicies(cmd *cobra.Command, args []string) error {
	scenarioName := args[0]
	policies := args[1:]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLICY\tSTEPS\tCOLLISIONS\tENERGY DRIFT\tPENETRATION\tOUTCOME")

	for _, name := range policies {
		cfg := config.DefaultConfig()
		cfg.Scenario = scenarioName
		cfg.Timestep = timestep
		cfg.Duration = duration
		cfg.Seed = seed
		cfg.Policy = name
		if err := cfg.Validate(); err != nil {
			return err
		}

		scene, err := buildScenario(cfg)
		if err != nil {
			return err
		}
		result, runErr := simulate(scene, cfg)

		outcome := "ok"
		if runErr != nil {
			outcome = runErr.Error()
			var ae *advance.Error
			if errors.As(runErr, &ae) {
				outcome = fmt.Sprintf("failed: %s at t=%.3f", ae.Kind, ae.Time)
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2e\t%.2e\t%s\n",
			name,
			result.Steps(),
			result.Totals.Collisions,
			result.Metrics["energy_drift"],
			result.Metrics["penetration"],
			outcome,
		)
	}
	return w.Flush()
}
