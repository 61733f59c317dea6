package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/qgsim/internal/dynamo"
	"github.com/san-kum/qgsim/internal/integrators"
	"github.com/san-kum/qgsim/internal/logging"
	"github.com/san-kum/qgsim/internal/params"
	"github.com/san-kum/qgsim/internal/sim"
	"github.com/san-kum/qgsim/internal/storage"
	"github.com/san-kum/qgsim/internal/tendency"
	"github.com/san-kum/qgsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	configFile      string
	preset          string
	dt              float64
	transientTime   float64
	integrationTime float64
	writeSteps      int
	seed            int64
	integrator      string
	ensemble        int
	showProgress    bool

	stateArg string

	log *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "qgsim",
		Short:         "coupled atmosphere-ocean tendency engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log = logging.New(os.Stderr, logging.Config{Level: lvl, JSON: logJSON, Service: "qgsim"})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qgsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate onto the attractor and record a trajectory",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", params.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&transientTime, "transient", params.DefaultTransientTime, "transient time discarded before sampling")
	runCmd.Flags().Float64Var(&integrationTime, "time", params.DefaultIntegrationTime, "sampled integration time")
	runCmd.Flags().IntVar(&writeSteps, "write-steps", params.DefaultWriteSteps, "steps between recorded samples")
	runCmd.Flags().Int64Var(&seed, "seed", params.DefaultSeed, "seed of the random initial condition")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator ("+strings.Join(integrators.List(), ", ")+")")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of trajectories with consecutive seeds")
	runCmd.Flags().BoolVar(&showProgress, "progress", false, "show a live progress view")

	tendencyCmd := &cobra.Command{
		Use:   "tendency",
		Short: "evaluate f and Df at a state",
		Args:  cobra.NoArgs,
		RunE:  evalTendency,
	}
	addParamFlags(tendencyCmd)
	tendencyCmd.Flags().StringVar(&stateArg, "state", "", "comma separated state (default: random initial condition)")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "print parameters and tensor sizes",
		Args:  cobra.NoArgs,
		RunE:  printInfo,
	}
	addParamFlags(infoCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range params.ListPresets() {
				p := params.GetPreset(name)
				fmt.Printf("  %-18s ndim=%d\n", name, p.Ndim())
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a parameter file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveParams(cmd)
			if err != nil {
				return err
			}
			if err := params.Save(args[0], p); err != nil {
				return err
			}
			fmt.Println(tui.OK("wrote " + args[0]))
			return nil
		},
	}
	addParamFlags(initCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	rootCmd.AddCommand(runCmd, tendencyCmd, infoCmd, presetsCmd, initCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.Err("error: "+err.Error()))
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration ("+strings.Join(params.ListPresets(), ", ")+")")
}

// resolveParams picks the parameter set: a config file wins over a preset,
// which wins over the coupled defaults. Integration flags override both when
// set explicitly.
func resolveParams(cmd *cobra.Command) (*params.QgParams, error) {
	var p *params.QgParams
	switch {
	case configFile != "":
		loaded, err := params.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		p = loaded
	case preset != "":
		p = params.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, params.ListPresets())
		}
	default:
		p = params.DefaultParams()
	}

	flags := cmd.Flags()
	if flags.Lookup("dt") != nil {
		if flags.Changed("dt") {
			p.Integration.Dt = dt
		}
		if flags.Changed("transient") {
			p.Integration.TransientTime = transientTime
		}
		if flags.Changed("time") {
			p.Integration.IntegrationTime = integrationTime
		}
		if flags.Changed("write-steps") {
			p.Integration.WriteSteps = writeSteps
		}
		if flags.Changed("seed") {
			p.Integration.Seed = seed
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	p, err := resolveParams(cmd)
	if err != nil {
		return err
	}
	if err := checkRunOptions(ensemble, showProgress); err != nil {
		return err
	}
	newInteg, err := integrators.Factory(integrator)
	if err != nil {
		return err
	}

	tend, err := tendency.Create(p, tendency.WithLogger(log))
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := p.SimConfig()
	log.Info("integrating",
		"ndim", tend.Ndim(),
		"ensemble", ensemble,
		"integrator", integrator,
		"transient_time", cfg.TransientTime,
		"integration_time", cfg.IntegrationTime)

	start := time.Now()
	var results []*dynamo.Result

	job := func(ctx context.Context, report sim.ProgressFunc) error {
		if ensemble == 1 {
			s := sim.New(tend, newInteg())
			if report != nil {
				s.OnProgress(report)
			}
			x0 := sim.RandomInitialState(tend.Ndim(), p.Integration.InitScale, cfg.Seed)
			res, err := s.Run(ctx, x0, cfg)
			if err != nil {
				return err
			}
			results = []*dynamo.Result{res}
			return nil
		}

		res, err := sim.NewEnsemble(tend, newInteg, ensemble, cfg.Seed, p.Integration.InitScale).Run(ctx, cfg)
		if err != nil {
			return err
		}
		results = res
		return nil
	}

	if showProgress {
		err = tui.RunWithProgress(ctx, os.Stdout, "qgsim run", job)
	} else {
		err = job(ctx, nil)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for i, res := range results {
		runID, err := st.Save(storage.Run{
			Preset:     preset,
			Integrator: integrator,
			Member:     i,
			Elapsed:    elapsed,
			Params:     p,
		}, res)
		if err != nil {
			return err
		}
		final := res.States[len(res.States)-1]
		log.Info("run saved", "id", runID, "member", i, "samples", len(res.States), "final_norm", final.Norm())
		fmt.Println(tui.KV("run", runID))
	}
	fmt.Println(tui.KV("elapsed", elapsed.Round(time.Millisecond)))
	return nil
}

func checkRunOptions(ensemble int, progress bool) error {
	if ensemble < 1 {
		return fmt.Errorf("ensemble must be at least 1, got %d", ensemble)
	}
	if progress && ensemble > 1 {
		return fmt.Errorf("--progress follows a single trajectory and cannot be combined with --ensemble %d", ensemble)
	}
	return nil
}

func evalTendency(cmd *cobra.Command, args []string) error {
	p, err := resolveParams(cmd)
	if err != nil {
		return err
	}
	tend, err := tendency.Create(p, tendency.WithLogger(log))
	if err != nil {
		return err
	}

	var x []float64
	if stateArg == "" {
		x = sim.RandomInitialState(tend.Ndim(), p.Integration.InitScale, p.Integration.Seed)
	} else {
		x, err = parseState(stateArg)
		if err != nil {
			return err
		}
	}
	if len(x) != tend.Ndim() {
		return &dynamo.DimensionError{Want: tend.Ndim(), Got: len(x)}
	}

	f := tend.F(0, x)
	df := tend.Df(0, x)

	fmt.Println(tui.Title("state"))
	fmt.Print(tui.Vector("x", x))
	fmt.Println(tui.Title("tendency"))
	fmt.Print(tui.Vector("f", f))
	fmt.Println(tui.Title("jacobian"))
	n, _ := df.Dims()
	for i := 0; i < n; i++ {
		row := make([]string, n)
		for j := 0; j < n; j++ {
			row[j] = fmt.Sprintf("% .4e", df.At(i, j))
		}
		fmt.Println(strings.Join(row, "  "))
	}
	return nil
}

func parseState(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	x := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("state component %d: %w", i+1, err)
		}
		x = append(x, v)
	}
	return x, nil
}

func printInfo(cmd *cobra.Command, args []string) error {
	p, err := resolveParams(cmd)
	if err != nil {
		return err
	}
	tend, err := tendency.Create(p, tendency.WithLogger(log), tendency.WithTensor())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.Title("model"))
	fmt.Fprintln(out, tui.KV("ndim", tend.Ndim()))
	fmt.Fprintln(out, tui.KV("atmospheric modes", p.NumAtmosphericModes()))
	fmt.Fprintln(out, tui.KV("oceanic modes", p.NumOceanicModes()))
	qt := tend.QgTensor
	fmt.Fprintln(out, tui.KV("tensor nnz", qt.Tensor.NNZ()))
	fmt.Fprintln(out, tui.KV("jacobian nnz", qt.JacobianTensor.NNZ()))
	fmt.Fprintln(out, tui.KV("atmosphere index", qt.Layout.Atmosphere))
	if p.Ocean != nil {
		fmt.Fprintln(out, tui.KV("ocean index", qt.Layout.Ocean))
	}
	fmt.Fprintln(out, tui.Separator(40))

	a := p.Atmosphere
	fmt.Fprintln(out, tui.Title("atmosphere"))
	fmt.Fprintln(out, tui.KV("a", a.A))
	fmt.Fprintln(out, tui.KV("b", a.B))
	fmt.Fprintln(out, tui.KV("F", a.F))
	fmt.Fprintln(out, tui.KV("G", a.G))

	if o := p.Ocean; o != nil {
		fmt.Fprintln(out, tui.Title("ocean"))
		fmt.Fprintln(out, tui.KV("name", o.Name))
		fmt.Fprintln(out, tui.KV("gamma", o.Gamma))
		fmt.Fprintln(out, tui.KV("kappa", o.Kappa))
		fmt.Fprintln(out, tui.KV("coupling", o.Coupling))
	}

	in := p.Integration
	fmt.Fprintln(out, tui.Separator(40))
	fmt.Fprintln(out, tui.Title("integration"))
	fmt.Fprintln(out, tui.KV("dt", in.Dt))
	fmt.Fprintln(out, tui.KV("transient time", in.TransientTime))
	fmt.Fprintln(out, tui.KV("integration time", in.IntegrationTime))
	fmt.Fprintln(out, tui.KV("write steps", in.WriteSteps))
	fmt.Fprintln(out, tui.KV("seed", in.Seed))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tNDIM\tSAMPLES\tINTEG\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.2fs\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ndim,
			run.Samples,
			run.Integrator,
			run.Elapsed,
		)
	}
	return w.Flush()
}
