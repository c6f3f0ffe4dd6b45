// Package config loads run settings: built-in defaults, then an optional YAML
// file, then OBSTGARTEN_* environment variables. Command line flags are
// applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/caarlos0/env/v11"
	"github.com/sw965/obstgarten/game"
	"github.com/sw965/obstgarten/solver"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"os"
)

var ErrInvalid = errors.New("invalid settings")

type Config struct {
	Fruit    int           `yaml:"fruit" env:"OBSTGARTEN_FRUIT"`
	Raven    int           `yaml:"raven" env:"OBSTGARTEN_RAVEN"`
	Basket   int           `yaml:"basket" env:"OBSTGARTEN_BASKET"`
	Strategy game.Strategy `yaml:"strategy" env:"OBSTGARTEN_STRATEGY"`

	// Workers bounds the goroutines of matrix filling and simulation; 0 means GOMAXPROCS.
	Workers int    `yaml:"workers" env:"OBSTGARTEN_WORKERS"`
	Method  string `yaml:"method" env:"OBSTGARTEN_METHOD"`

	Trials int     `yaml:"trials" env:"OBSTGARTEN_TRIALS"`
	Seed   int64   `yaml:"seed" env:"OBSTGARTEN_SEED"`
	Level  float64 `yaml:"level" env:"OBSTGARTEN_LEVEL"`

	LogLevel string `yaml:"log_level" env:"OBSTGARTEN_LOG_LEVEL"`
}

// Default returns the classic game: ten fruit per tree, a raven nine steps
// away and a basket of two.
func Default() Config {
	return Config{
		Fruit:    10,
		Raven:    9,
		Basket:   2,
		Strategy: game.Positive,
		Method:   solver.Auto.String(),
		Trials:   100000,
		Seed:     54321,
		Level:    0.99,
		LogLevel: "info",
	}
}

// Load returns Default overridden by the YAML file at path (skipped when path
// is empty) and by the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Game() game.Config {
	return game.Config{
		Fruit:    c.Fruit,
		Raven:    c.Raven,
		Basket:   c.Basket,
		Strategy: c.Strategy,
	}
}

func (c Config) SolveMethod() (solver.Method, error) {
	return solver.ParseMethod(c.Method)
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level: %w", ErrInvalid, err)
	}
	return level, nil
}

func (c Config) Validate() error {
	if err := c.Game().Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	if _, err := c.SolveMethod(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalid, c.Trials)
	}
	if c.Level <= 0 || c.Level >= 1 {
		return fmt.Errorf("%w: level must lie in (0, 1), got %g", ErrInvalid, c.Level)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}
