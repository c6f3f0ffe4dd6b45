// Package obstgarten computes the exact winning probability of the children's
// game Obstgarten (the orchard game) by solving its absorbing Markov chain.
//
// Four trees carry fruit, a raven walks towards the orchard and a six-sided
// die decides each turn: four faces harvest one fruit from a specific tree,
// one face moves the raven and one face lets the players fill a basket from
// the trees of their choice. The players win when every tree is empty before
// the raven arrives.
//
//	cfg := game.Config{Fruit: 10, Raven: 9, Basket: 2, Strategy: game.Positive}
//	analysis, err := obstgarten.Analyze(cfg, obstgarten.WithLogger(logger))
//	fmt.Println(analysis.Result.Win)
package obstgarten

import (
	"fmt"
	"github.com/sw965/obstgarten/game"
	"github.com/sw965/obstgarten/markov"
	"github.com/sw965/obstgarten/solver"
	"log/slog"
	"time"
)

type Timings struct {
	Enumerate time.Duration
	Build     time.Duration
	Solve     time.Duration
}

func (t Timings) Total() time.Duration {
	return t.Enumerate + t.Build + t.Solve
}

// Analysis is everything one run produces. None of it is modified afterwards.
type Analysis struct {
	Config  game.Config
	Space   *markov.Space
	Matrix  *markov.Matrix
	Result  *solver.Result
	Timings Timings
}

type options struct {
	logger  *slog.Logger
	workers int
	method  solver.Method
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkers bounds the goroutines used to fill the transition matrix.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func WithMethod(m solver.Method) Option {
	return func(o *options) {
		o.method = m
	}
}

// Analyze validates cfg, enumerates the state space, fills the transition
// matrix under cfg.Strategy and solves for the absorption probabilities. Any
// failed check aborts the run; no partial analysis is returned.
func Analyze(cfg game.Config, opts ...Option) (*Analysis, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("fruit", cfg.Fruit, "raven", cfg.Raven, "basket", cfg.Basket, "strategy", cfg.Strategy.String())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analysis := &Analysis{Config: cfg}

	began := time.Now()
	space, err := markov.Enumerate(cfg.Fruit, cfg.Raven)
	if err != nil {
		return nil, fmt.Errorf("enumerate states: %w", err)
	}
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("enumerate states: %w", err)
	}
	analysis.Space = space
	analysis.Timings.Enumerate = time.Since(began)

	transient := space.Count(game.Transient)
	logger.Info("states initialized",
		"total", space.Len(),
		"transient", transient,
		"victory", space.Count(game.Victory),
		"defeat", space.Count(game.Defeat),
		"unreachable", space.Count(game.Unreachable),
		"elapsed", analysis.Timings.Enumerate,
	)

	began = time.Now()
	m, err := markov.Build(space, cfg.Strategy, cfg.Basket, markov.WithWorkers(o.workers))
	if err != nil {
		return nil, fmt.Errorf("fill transition matrix: %w", err)
	}
	analysis.Matrix = m
	analysis.Timings.Build = time.Since(began)
	logger.Info("transition matrix filled", "rows", m.Len(), "elapsed", analysis.Timings.Build)

	// (Q - I) は遷移状態数の二乗の float64
	if bytes := int64(transient) * int64(transient) * 8; bytes > 1<<30 {
		logger.Warn("dense transient system is large", "transient", transient, "bytes", bytes)
	}

	began = time.Now()
	result, err := solver.Solve(space, m, solver.WithMethod(o.method))
	if err != nil {
		return nil, fmt.Errorf("solve absorbing chain: %w", err)
	}
	analysis.Result = result
	analysis.Timings.Solve = time.Since(began)

	for _, v := range result.Victories {
		logger.Debug("victory state", "state", v.State.String(), "probability", v.P)
	}
	logger.Info("absorbing chain solved",
		"method", result.Method.String(),
		"start", result.Start.String(),
		"win", result.Win,
		"loss", result.Loss,
		"expected_throws", result.ExpectedThrows,
		"elapsed", analysis.Timings.Solve,
	)
	return analysis, nil
}
