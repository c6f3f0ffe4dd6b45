package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"github.com/sw965/obstgarten"
	"github.com/sw965/obstgarten/config"
	"github.com/sw965/obstgarten/game"
	"github.com/sw965/obstgarten/playout"
	"github.com/sw965/obstgarten/report"
	"io"
	"log/slog"
	"runtime"
)

// flags holds the raw command line values. Only flags the user actually set
// override the loaded configuration.
type flags struct {
	configPath string
	logLevel   string
	format     string

	fruit    int
	raven    int
	basket   int
	strategy string
	workers  int
	method   string

	trials int
	seed   int64
	level  float64
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "obstgarten",
		Short: "Exact winning probability of the orchard game Obstgarten",
		Long: `obstgarten builds the absorbing Markov chain of the dice game Obstgarten,
fills its transition matrix under a basket strategy and solves it for the
probability that the players empty all trees before the raven arrives.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML file with settings")
	pf.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.IntVar(&f.fruit, "fruit", defaults.Fruit, "fruit per tree")
	pf.IntVar(&f.raven, "raven", defaults.Raven, "steps the raven needs to reach the orchard")
	pf.IntVar(&f.basket, "basket", defaults.Basket, "fruit picked when the basket is thrown")
	pf.StringVar(&f.strategy, "strategy", defaults.Strategy.String(), "basket strategy (positive, negative, random)")
	pf.IntVar(&f.workers, "workers", defaults.Workers, "worker goroutines, 0 for GOMAXPROCS")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve the Markov chain exactly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := f.load(cmd)
			if err != nil {
				return err
			}
			a, err := analyze(cfg, logger)
			if err != nil {
				return err
			}
			switch f.format {
			case "json":
				return report.JSON(cmd.OutOrStdout(), a)
			case "text":
				return report.Text(cmd.OutOrStdout(), a)
			}
			return fmt.Errorf("unknown format %q (want text or json)", f.format)
		},
	}
	solveCmd.Flags().StringVar(&f.format, "format", "text", "output format (text, json)")
	solveCmd.Flags().StringVar(&f.method, "method", defaults.Method, "solve method (auto, triangular, lu)")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the winning probability by playing many games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := f.load(cmd)
			if err != nil {
				return err
			}
			est, err := simulate(cfg, logger)
			if err != nil {
				return err
			}
			return report.Simulation(cmd.OutOrStdout(), cfg.Game(), est, cfg.Level)
		},
	}
	addSimulationFlags(simulateCmd, f, defaults)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Check the exact solution against a simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := f.load(cmd)
			if err != nil {
				return err
			}
			a, err := analyze(cfg, logger)
			if err != nil {
				return err
			}
			est, err := simulate(cfg, logger)
			if err != nil {
				return err
			}
			if err := report.Comparison(cmd.OutOrStdout(), a, est, cfg.Level); err != nil {
				return err
			}
			if !est.Contains(a.Result.Win, cfg.Level) {
				lo, hi := est.Interval(cfg.Level)
				return fmt.Errorf("exact win probability %.6f outside the %g%% interval [%.6f, %.6f]",
					a.Result.Win, 100*cfg.Level, lo, hi)
			}
			return nil
		},
	}
	compareCmd.Flags().StringVar(&f.method, "method", defaults.Method, "solve method (auto, triangular, lu)")
	addSimulationFlags(compareCmd, f, defaults)

	rootCmd.AddCommand(solveCmd, simulateCmd, compareCmd)
	return rootCmd
}

func addSimulationFlags(cmd *cobra.Command, f *flags, defaults config.Config) {
	cmd.Flags().IntVar(&f.trials, "trials", defaults.Trials, "number of simulated games")
	cmd.Flags().Int64Var(&f.seed, "seed", defaults.Seed, "seed of the first worker's generator")
	cmd.Flags().Float64Var(&f.level, "level", defaults.Level, "confidence level of the interval")
}

// load merges the configuration file, the environment and the flags that
// were set, validates the result and builds the logger.
func (f *flags) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	set := cmd.Flags().Changed
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("fruit") {
		cfg.Fruit = f.fruit
	}
	if set("raven") {
		cfg.Raven = f.raven
	}
	if set("basket") {
		cfg.Basket = f.basket
	}
	if set("strategy") {
		s, err := game.ParseStrategy(f.strategy)
		if err != nil {
			return config.Config{}, nil, err
		}
		cfg.Strategy = s
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	if set("method") {
		cfg.Method = f.method
	}
	if set("trials") {
		cfg.Trials = f.trials
	}
	if set("seed") {
		cfg.Seed = f.seed
	}
	if set("level") {
		cfg.Level = f.level
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), level)
	return cfg, logger, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func analyze(cfg config.Config, logger *slog.Logger) (*obstgarten.Analysis, error) {
	method, err := cfg.SolveMethod()
	if err != nil {
		return nil, err
	}
	return obstgarten.Analyze(cfg.Game(),
		obstgarten.WithLogger(logger),
		obstgarten.WithWorkers(cfg.Workers),
		obstgarten.WithMethod(method),
	)
}

func simulate(cfg config.Config, logger *slog.Logger) (playout.Estimate, error) {
	e, err := playout.NewEngine(cfg.Game())
	if err != nil {
		return playout.Estimate{}, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	logger.Info("simulation started", "trials", cfg.Trials, "workers", workers, "seed", cfg.Seed)
	est, err := e.Playouts(cfg.Trials, playout.NewRNGs(cfg.Seed, workers))
	if err != nil {
		return playout.Estimate{}, err
	}
	logger.Info("simulation finished", "wins", est.Wins, "rate", est.Rate, "mean_throws", est.MeanThrows)
	return est, nil
}
