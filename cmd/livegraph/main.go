package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/config"
	"github.com/san-kum/livegraph/internal/env"
	"github.com/san-kum/livegraph/internal/export"
	"github.com/san-kum/livegraph/internal/server"
	"github.com/san-kum/livegraph/internal/viz"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	source     string
	seed       uint64
	fps        int
	verbose    bool

	// live
	pick    bool
	logFile string
	cols    int
	rows    int

	// serve
	addr string

	// run
	runFor   time.Duration
	svgOut   string
	saveOut  string
	showPlot bool

	// push
	redisAddr string
	redisKey  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "livegraph",
		Short:        "live force-directed graph layout",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// default to the live view with the preset picker
			pick = true
			return runLive(cmd, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml or toml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.StringVar(&source, "source", "", "synthetic, redis, or a .yaml/.json/.db snapshot")
	pf.Uint64Var(&seed, "seed", 1, "synthetic graph seed")
	pf.IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the layout in the terminal",
		RunE:  runLive,
	}
	liveCmd.Flags().BoolVar(&pick, "pick", false, "choose a preset interactively")
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs here instead of discarding them")
	liveCmd.Flags().IntVar(&cols, "cols", viz.DefaultCols, "canvas columns")
	liveCmd.Flags().IntVar(&rows, "rows", viz.DefaultRows, "canvas rows")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the layout headless behind an HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the layout headless for a fixed time and export it",
		RunE:  runHeadless,
	}
	runCmd.Flags().DurationVar(&runFor, "time", 10*time.Second, "simulated duration")
	runCmd.Flags().StringVarP(&svgOut, "out", "o", "", "write the final frame as SVG")
	runCmd.Flags().StringVar(&saveOut, "save", "", "save the final graph (.yaml, .json or .db)")
	runCmd.Flags().BoolVar(&showPlot, "plot", true, "print the kinetic energy plot")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFPS\tNODES\tFEED\tINTERVAL\tBATCH")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%dms\t%d\n", name, p.FPS,
					p.Synthetic.Nodes, p.Synthetic.Feed, p.Feed.IntervalMS, p.Feed.BatchSize)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the resolved configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	pushCmd := &cobra.Command{
		Use:   "push [snapshot]",
		Short: "publish a snapshot's elements to the redis feed list",
		Args:  cobra.ExactArgs(1),
		RunE:  runPush,
	}
	pushCmd.Flags().StringVar(&redisAddr, "redis", "", "redis address (default from config)")
	pushCmd.Flags().StringVar(&redisKey, "key", "", "redis list key (default from config)")

	rootCmd.AddCommand(liveCmd, serveCmd, runCmd, presetsCmd, initCmd, pushCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Prefix:          "livegraph",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// resolveConfig layers defaults, preset, config file and explicit flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = source
	}
	if flags.Changed("seed") {
		cfg.Synthetic.Seed = seed
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr = redisAddr
	}
	if flags.Changed("key") {
		cfg.Redis.Key = redisKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runLoop runs loop until ctx ends and starts a on it.
func runLoop(ctx context.Context, loop *clock.Loop, a *app) (<-chan error, error) {
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var startErr error
	if err := loop.Do(ctx, func() { startErr = a.start() }); err != nil {
		return done, err
	}
	return done, startErr
}

func runLive(cmd *cobra.Command, args []string) error {
	if pick {
		info := make(map[string]string)
		for _, name := range config.ListPresets() {
			p := config.GetPreset(name)
			info[name] = fmt.Sprintf("%d nodes, +%d fed every %dms", p.Synthetic.Nodes, p.Synthetic.Feed, p.Feed.IntervalMS)
		}
		chosen, err := viz.Pick(config.ListPresets(), info)
		if err != nil {
			return err
		}
		if chosen == "" {
			return nil
		}
		preset = chosen
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// the alt screen owns the terminal, so logs go to a file or nowhere
	out := io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := newLogger(out, verbose)

	ctx, cancel := signalContext()
	defer cancel()

	loop := clock.NewLoop()
	term := viz.NewTerminal(cfg.Viewport.Width, cfg.Viewport.Height)
	a, err := newApp(ctx, cfg, logger, term, loop, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	done, err := runLoop(ctx, loop, a)
	if err != nil {
		return err
	}

	session := viz.NewSession(loop, a.sim, term, a.feed, a.trace, cols, rows)
	refresh := time.Second / time.Duration(cfg.FPS)
	title := fmt.Sprintf("livegraph · %s", describeSource(cfg))
	viewErr := viz.Run(ctx, session, title, refresh)

	cancel()
	<-done
	return viewErr
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, verbose)

	ctx, cancel := signalContext()
	defer cancel()

	loop := clock.NewLoop()
	svg := export.NewSVG(cfg.Viewport.Width, cfg.Viewport.Height)
	a, err := newApp(ctx, cfg, logger, svg, loop, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	done, err := runLoop(ctx, loop, a)
	if err != nil {
		return err
	}
	logger.Info("layout running", "source", describeSource(cfg), "fps", cfg.FPS)

	srv := server.New(loop, a.sim, a.set, svg,
		server.WithFeed(a.feed),
		server.WithMetrics(a.collector),
		server.WithLogger(logger))
	serveErr := srv.ListenAndServe(ctx, cfg.Server.Addr)

	cancel()
	<-done
	return serveErr
}

// runHeadless advances a manual clock, so the run is deterministic for a
// given seed and takes no wall time.
func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, verbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	clk := clock.NewManual()
	svg := export.NewSVG(cfg.Viewport.Width, cfg.Viewport.Height)
	a, err := newApp(ctx, cfg, logger, svg, clk, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.start(); err != nil {
		return err
	}
	start := time.Now()
	clk.Advance(runFor)
	a.stop()

	out := cmd.OutOrStdout()
	counts := a.sim.Graph().Counts()
	fmt.Fprintf(out, "simulated %v in %v\n", runFor, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "frames=%d restarts=%d alpha=%.3f energy=%.4f\n",
		a.sim.Frames(), a.sim.Solver().Restarts(), a.sim.Solver().Alpha(), a.sim.Solver().Energy())
	fmt.Fprintf(out, "nodes=%d links=%d groups=%d feed=%s batches=%d emitted=%d\n",
		counts.Nodes, counts.Links, counts.Groups, a.feed.State(), a.feed.Batches(), a.feed.Emitted())

	if series := a.trace.Series(); showPlot && len(series) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(series, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("kinetic energy")))
	}

	if svgOut != "" {
		if err := writeSVG(svgOut, svg); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", svgOut)
	}
	if saveOut != "" {
		if err := saveGraph(ctx, saveOut, a); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", saveOut)
	}
	return a.feed.Err()
}

func writeSVG(path string, svg *export.SVG) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := svg.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	return f.Close()
}

func saveGraph(ctx context.Context, path string, a *app) error {
	if isSQLite(path) {
		return env.SaveSQLite(ctx, path, env.FromGraph(a.sim.Graph()))
	}
	return env.SaveFile(path, a.sim.Graph())
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, verbose)
	ctx, cancel := signalContext()
	defer cancel()

	path := args[0]
	var snap = env.Synthetic(cfg.Synthetic.Seed, cfg.Synthetic.Nodes, cfg.Synthetic.Feed)
	if path != "synthetic" {
		if isSQLite(path) {
			snap, err = env.LoadSQLite(ctx, path)
		} else {
			snap, err = env.LoadFile(path)
		}
		if err != nil {
			return err
		}
	}

	client := env.DialRedis(cfg.Redis.Addr)
	defer client.Close()
	n, err := env.Publish(ctx, client, cfg.Redis.Key, snap)
	if err != nil {
		return err
	}
	logger.Info("published", "elements", n, "key", cfg.Redis.Key, "addr", cfg.Redis.Addr)
	return nil
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func describeSource(cfg *config.Config) string {
	switch cfg.Source {
	case "", "synthetic":
		return fmt.Sprintf("synthetic seed %d", cfg.Synthetic.Seed)
	case "redis":
		return fmt.Sprintf("redis %s/%s", cfg.Redis.Addr, cfg.Redis.Key)
	default:
		return filepath.Base(cfg.Source)
	}
}
