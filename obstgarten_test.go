package obstgarten_test

import (
	"bytes"
	"errors"
	"github.com/sw965/obstgarten"
	"github.com/sw965/obstgarten/game"
	"gonum.org/v1/gonum/floats/scalar"
	"log/slog"
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := game.Config{Fruit: 1, Raven: 1, Basket: 1, Strategy: game.Random}
	a, err := obstgarten.Analyze(cfg, obstgarten.WithLogger(logger), obstgarten.WithWorkers(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !scalar.EqualWithinAbs(a.Result.Win, 1.0/3.0, 1e-12) {
		t.Errorf("Win want: 1/3, got: %v", a.Result.Win)
	}
	if a.Space.Len() != 10 || a.Matrix.Len() != 10 {
		t.Errorf("want 10 states, got space %d, matrix %d", a.Space.Len(), a.Matrix.Len())
	}
	if a.Timings.Total() < a.Timings.Solve {
		t.Errorf("total %v shorter than solve %v", a.Timings.Total(), a.Timings.Solve)
	}

	out := buf.String()
	for _, sub := range []string{"states initialized", "transient=4", "absorbing chain solved", "strategy=random", "victory state"} {
		if !strings.Contains(out, sub) {
			t.Errorf("log output lacks %q:\n%s", sub, out)
		}
	}
}

func TestAnalyzeRejectsConfig(t *testing.T) {
	tests := []game.Config{
		{Fruit: 0, Raven: 9, Basket: 2},
		{Fruit: 10, Raven: 0, Basket: 2},
		{Fruit: 10, Raven: 9, Basket: 0},
		{Fruit: 10, Raven: 9, Basket: 2, Strategy: game.Strategy(-1)},
	}

	for _, cfg := range tests {
		a, err := obstgarten.Analyze(cfg)
		if !errors.Is(err, game.ErrInvalidConfig) {
			t.Errorf("%+v: want ErrInvalidConfig, got: %v", cfg, err)
		}
		if a != nil {
			t.Errorf("%+v: want no analysis", cfg)
		}
	}
}
