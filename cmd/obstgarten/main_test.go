package main

import (
	"bytes"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw965/obstgarten/game"
	"github.com/sw965/obstgarten/report"
	"os"
	"path/filepath"
	"testing"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSolveJSON(t *testing.T) {
	out, logs, err := run(t, "solve", "--fruit", "1", "--raven", "1", "--basket", "1", "--format", "json")
	require.NoError(t, err)

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, game.Config{Fruit: 1, Raven: 1, Basket: 1, Strategy: game.Positive}, s.Config)
	assert.InDelta(t, 1.0/3.0, s.Win, 1e-12)
	assert.InDelta(t, 4.0, s.ExpectedThrows, 1e-12)
	assert.Contains(t, logs, "absorbing chain solved")
}

func TestSolveText(t *testing.T) {
	out, _, err := run(t, "solve", "--fruit", "2", "--raven", "2", "--basket", "2",
		"--strategy", "random", "--method", "lu", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "random")
	assert.Contains(t, out, "lu")
}

func TestSolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fruit: 1\nraven: 1\nbasket: 1\nstrategy: negative\n"), 0o600))

	out, _, err := run(t, "solve", "--config", path, "--format", "json", "--raven", "2")
	require.NoError(t, err)

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	// フラグはファイルより優先される
	assert.Equal(t, game.Config{Fruit: 1, Raven: 2, Basket: 1, Strategy: game.Negative}, s.Config)
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown_strategy", []string{"solve", "--strategy", "greedy"}, "unknown strategy"},
		{"zero_fruit", []string{"solve", "--fruit", "0"}, "invalid config"},
		{"bad_format", []string{"solve", "--fruit", "1", "--raven", "1", "--format", "xml"}, "unknown format"},
		{"bad_method", []string{"solve", "--method", "qr"}, "invalid settings"},
		{"extra_args", []string{"solve", "now"}, "unknown command"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSimulate(t *testing.T) {
	out, logs, err := run(t, "simulate", "--fruit", "1", "--raven", "1", "--basket", "1",
		"--trials", "3000", "--seed", "7", "--workers", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3000")
	assert.Contains(t, logs, "simulation finished")
}

func TestCompare(t *testing.T) {
	out, _, err := run(t, "compare", "--fruit", "2", "--raven", "3", "--basket", "2",
		"--strategy", "random", "--trials", "20000", "--level", "0.9999", "--workers", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "inside the interval")
}
