package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/Iohannes-long/isaac-sim-gym/internal/config"
	"github.com/Iohannes-long/isaac-sim-gym/internal/kit"
	"github.com/Iohannes-long/isaac-sim-gym/internal/metrics"
	"github.com/Iohannes-long/isaac-sim-gym/internal/policy"
	"github.com/Iohannes-long/isaac-sim-gym/internal/seeding"
	"github.com/Iohannes-long/isaac-sim-gym/internal/store"
	"github.com/Iohannes-long/isaac-sim-gym/internal/viewport"
	"github.com/Iohannes-long/isaac-sim-gym/tasks/cartpole"
	"github.com/Iohannes-long/isaac-sim-gym/vecenv"
)

var (
	dataDir    string
	headless   bool
	device     int
	numEnvs    int
	steps      int
	seed       int64
	policyName string
	gpuPipe    bool
	noViewport bool
	configFile string
	live       bool
	noSave     bool
	exportOut  string
	initDir    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "isaacgym",
		Short: "vectorized RL environments on the simulation host",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".isaacgym", "data directory")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "run a scripted policy through the cartpole task",
		RunE:  runRollout,
	}
	rolloutCmd.Flags().BoolVar(&headless, "headless", false, "run without the viewport")
	rolloutCmd.Flags().IntVar(&device, "device", 0, "physics device index")
	rolloutCmd.Flags().IntVar(&numEnvs, "envs", 16, "parallel env instances")
	rolloutCmd.Flags().IntVar(&steps, "steps", 1000, "env steps to run")
	rolloutCmd.Flags().Int64Var(&seed, "seed", -1, "random seed (-1 for random)")
	rolloutCmd.Flags().StringVar(&policyName, "policy", "random", "policy: random or pd")
	rolloutCmd.Flags().BoolVar(&gpuPipe, "gpu-pipeline", false, "use the GPU physics pipeline")
	rolloutCmd.Flags().BoolVar(&noViewport, "no-viewport", false, "disable the viewport extension")
	rolloutCmd.Flags().StringVar(&configFile, "config", "", "sim params file (yaml)")
	rolloutCmd.Flags().BoolVar(&live, "live", false, "interactive live view")
	rolloutCmd.Flags().BoolVar(&noSave, "no-save", false, "skip saving the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's episode returns",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportOut, "out", "-", "output path (- for stdout)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "write default sim params and a headless experience file",
		RunE:  initConfig,
	}
	configInitCmd.Flags().StringVar(&initDir, "dir", ".", "target directory")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(rolloutCmd, listCmd, plotCmd, exportCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadParams() (*config.SimParams, error) {
	params := config.Defaults()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		params = loaded
	}
	if gpuPipe {
		params.UseGPUPipeline = true
	}
	if noViewport {
		off := false
		params.EnableViewport = &off
	}
	return params, nil
}

func runRollout(cmd *cobra.Command, args []string) error {
	params, err := loadParams()
	if err != nil {
		return err
	}

	env, err := vecenv.New(headless, device)
	if err != nil {
		return err
	}
	defer env.Close()

	applied := env.Seed(seed)

	tsk := cartpole.New(cartpole.Options{NumEnvs: numEnvs})
	if err := env.SetTask(tsk, "native", params, true); err != nil {
		return err
	}

	var pol policy.Policy
	switch policyName {
	case "pd":
		pol = policy.NewBalancePD()
	default:
		pol = policy.NewRandom(env.ActionSpace(), env.NumEnvs(), seeding.Rand())
	}

	tracker := metrics.NewEpisodeTracker(env.NumEnvs())

	if live {
		err = rolloutLive(env, tsk, pol, tracker)
	} else {
		err = rolloutLoop(context.Background(), env, tsk, pol, tracker, nil)
	}
	if err != nil {
		return err
	}

	fmt.Printf("policy %s · %d envs · %d steps · seed %d\n", pol.Name(), env.NumEnvs(), steps, applied)
	fmt.Printf("episodes %d · mean return %.1f · max return %.1f\n",
		tracker.Episodes(), tracker.MeanReturn(), tracker.MaxReturn())

	if noSave {
		return nil
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(store.RunMetadata{
		Task:           tsk.Name(),
		Device:         params.Device(),
		Backend:        "native",
		Seed:           applied,
		NumEnvs:        env.NumEnvs(),
		Steps:          steps,
		Frames:         env.SimFrameCount(),
		Episodes:       tracker.Episodes(),
		MeanReturn:     tracker.MeanReturn(),
		MaxReturn:      tracker.MaxReturn(),
		EpisodeReturns: tracker.Returns(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", runID)
	return nil
}

// rolloutLoop drives the env for the configured number of steps,
// publishing viewport snapshots and optionally forwarding them to a
// live view.
func rolloutLoop(ctx context.Context, env *vecenv.Env, tsk *cartpole.Task, pol policy.Policy, tracker *metrics.EpisodeTracker, send func(viewport.StepMsg)) error {
	obs, err := env.Reset()
	if err != nil {
		return err
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		actions := pol.Act(obs)
		var rewards []float64
		var dones []bool
		obs, rewards, dones, _, err = env.Step(actions)
		if err != nil {
			return err
		}
		tracker.Observe(rewards, dones)

		snap := viewport.Snapshot{
			TaskName: tsk.Name(),
			NumEnvs:  env.NumEnvs(),
			State:    tsk.StateRow(0),
			Returns:  tailReturns(tracker, 40),
		}
		env.Viewport().Publish(snap)
		if send != nil {
			send(viewport.StepMsg{Snapshot: snap, Frame: env.SimFrameCount(), Steps: i + 1})
		}
	}
	return nil
}

func rolloutLive(env *vecenv.Env, tsk *cartpole.Task, pol policy.Policy, tracker *metrics.EpisodeTracker) error {
	// The live program owns the terminal; keep the extension's own
	// frame writer quiet.
	env.Viewport().SetOutput(io.Discard)

	p := tea.NewProgram(viewport.NewLive(env.Viewport()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- rolloutLoop(ctx, env, tsk, pol, tracker, func(msg viewport.StepMsg) {
			p.Send(msg)
		})
		p.Send(viewport.DoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	cancel()
	return <-errCh
}

func tailReturns(tracker *metrics.EpisodeTracker, n int) []float64 {
	rets := tracker.Returns()
	if len(rets) > n {
		rets = rets[len(rets)-n:]
	}
	return rets
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tDEVICE\tENVS\tSTEPS\tEPISODES\tMEAN\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.1f\t%s\n",
			run.ID[:8], run.Task, run.Device, run.NumEnvs, run.Steps,
			run.Episodes, run.MeanReturn, run.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := findRun(st, args[0])
	if err != nil {
		return err
	}
	if len(meta.EpisodeReturns) < 2 {
		return fmt.Errorf("run %s has too few episodes to plot", args[0])
	}

	fmt.Println(asciigraph.Plot(meta.EpisodeReturns,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s episode returns", meta.Task))))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := findRun(st, args[0])
	if err != nil {
		return err
	}
	return st.ExportJSON(meta.ID, exportOut)
}

// findRun resolves a full or prefix run ID.
func findRun(st *store.Store, id string) (*store.RunMetadata, error) {
	if meta, err := st.Load(id); err == nil {
		return meta, nil
	}
	runs, err := st.List()
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if len(id) >= 4 && len(runs[i].ID) >= len(id) && runs[i].ID[:len(id)] == id {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("run %s not found", id)
}

func initConfig(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(initDir, 0755); err != nil {
		return err
	}

	paramsPath := filepath.Join(initDir, "sim_params.yaml")
	if err := config.Save(paramsPath, config.Defaults()); err != nil {
		return err
	}

	experience := `title: gym headless
settings:
  /renderer/enabled: false
  /persistent/renderer/useSceneGraphInstancing: true
extensions:
  - isaac.physics
`
	expPath := filepath.Join(initDir, kit.HeadlessExperience)
	if err := os.WriteFile(expPath, []byte(experience), 0644); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", paramsPath, expPath)
	fmt.Printf("set %s=%s for headless launches\n", kit.EnvExpPath, initDir)
	return nil
}
