// Package report renders analyses and simulation estimates for people (text)
// and for other programs (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sw965/obstgarten"
	"github.com/sw965/obstgarten/game"
	"github.com/sw965/obstgarten/playout"
	"io"
	"strings"
)

var (
	colorAccent  = lipgloss.Color("#4E9A06")
	colorMuted   = lipgloss.Color("#6C6C6C")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Border  lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Label:   lipgloss.NewStyle().Width(20),
	Value:   lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorAccent),
	Failure: lipgloss.NewStyle().Foreground(colorError),
	Border:  lipgloss.NewStyle().Foreground(colorWarning),
}

func Percent(p float64) string {
	return fmt.Sprintf("%.2f%%", 100*p)
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(styles.Label.Render(label))
	b.WriteString(styles.Value.Render(value))
	b.WriteByte('\n')
}

// Text writes the human readable report of a.
func Text(w io.Writer, a *obstgarten.Analysis) error {
	var b strings.Builder
	cfg := a.Config
	r := a.Result

	b.WriteString(styles.Title.Render("Obstgarten Markov chain analysis"))
	b.WriteByte('\n')
	b.WriteString(styles.Muted.Render("state: [fullest tree, 2nd fullest tree, 3rd fullest tree, emptiest tree, raven]"))
	b.WriteString("\n\n")

	line(&b, "fruit per tree", fmt.Sprint(cfg.Fruit))
	line(&b, "raven steps", fmt.Sprint(cfg.Raven))
	line(&b, "basket size", fmt.Sprint(cfg.Basket))
	line(&b, "strategy", cfg.Strategy.String())
	b.WriteByte('\n')

	for _, class := range game.Classes {
		line(&b, class.String()+" states", fmt.Sprint(a.Space.Count(class)))
	}
	b.WriteByte('\n')

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("victory state", "probability")
	for _, v := range r.Victories {
		t.Row(v.State.String(), Percent(v.P))
	}
	b.WriteString(t.String())
	b.WriteString("\n\n")

	line(&b, "start", r.Start.String())
	line(&b, "solve method", r.Method.String())
	line(&b, "win", Percent(r.Win))
	line(&b, "loss", Percent(r.Loss))
	line(&b, "expected throws", fmt.Sprintf("%.4f", r.ExpectedThrows))
	b.WriteString(styles.Muted.Render(fmt.Sprintf("enumerate %v, fill %v, solve %v",
		a.Timings.Enumerate, a.Timings.Build, a.Timings.Solve)))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

type VictorySummary struct {
	State       game.State `json:"state"`
	Probability float64    `json:"probability"`
}

// Summary is the JSON form of an analysis.
type Summary struct {
	Config         game.Config      `json:"config"`
	States         map[string]int   `json:"states"`
	Start          game.State       `json:"start"`
	Method         string           `json:"method"`
	Victories      []VictorySummary `json:"victories"`
	Win            float64          `json:"win"`
	Loss           float64          `json:"loss"`
	ExpectedThrows float64          `json:"expected_throws"`
	ElapsedMillis  float64          `json:"elapsed_ms"`
}

func NewSummary(a *obstgarten.Analysis) Summary {
	s := Summary{
		Config:         a.Config,
		States:         make(map[string]int, game.NumClasses),
		Start:          a.Result.Start,
		Method:         a.Result.Method.String(),
		Victories:      make([]VictorySummary, len(a.Result.Victories)),
		Win:            a.Result.Win,
		Loss:           a.Result.Loss,
		ExpectedThrows: a.Result.ExpectedThrows,
		ElapsedMillis:  float64(a.Timings.Total().Microseconds()) / 1000,
	}
	for _, class := range game.Classes {
		s.States[class.String()] = a.Space.Count(class)
	}
	for i, v := range a.Result.Victories {
		s.Victories[i] = VictorySummary{State: v.State, Probability: v.P}
	}
	return s
}

func JSON(w io.Writer, a *obstgarten.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewSummary(a))
}

// Simulation writes a Monte Carlo estimate with its confidence interval.
func Simulation(w io.Writer, cfg game.Config, est playout.Estimate, level float64) error {
	var b strings.Builder
	lo, hi := est.Interval(level)

	b.WriteString(styles.Title.Render("Obstgarten Monte Carlo simulation"))
	b.WriteString("\n\n")
	line(&b, "strategy", cfg.Strategy.String())
	line(&b, "games", fmt.Sprint(est.Trials))
	line(&b, "wins", fmt.Sprint(est.Wins))
	line(&b, "win rate", Percent(est.Rate))
	line(&b, fmt.Sprintf("%g%% interval", 100*level), fmt.Sprintf("[%s, %s]", Percent(lo), Percent(hi)))
	line(&b, "throws per game", fmt.Sprintf("%.4f ± %.4f", est.MeanThrows, est.ThrowsStdErr))

	_, err := io.WriteString(w, b.String())
	return err
}

// Comparison writes the exact result next to the estimate and whether the
// exact win probability lies inside the confidence interval.
func Comparison(w io.Writer, a *obstgarten.Analysis, est playout.Estimate, level float64) error {
	if err := Simulation(w, a.Config, est, level); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteByte('\n')
	line(&b, "exact win", Percent(a.Result.Win))
	line(&b, "exact throws", fmt.Sprintf("%.4f", a.Result.ExpectedThrows))
	if est.Contains(a.Result.Win, level) {
		b.WriteString(styles.Success.Render("exact result lies inside the interval"))
	} else {
		b.WriteString(styles.Failure.Render("exact result lies OUTSIDE the interval"))
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
