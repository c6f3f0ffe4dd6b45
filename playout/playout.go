// Package playout plays Obstgarten to the end many times and estimates the
// winning probability by sampling. It works on the physical orchard (trees
// are not sorted) and serves as an independent check of the exact solver.
//
// Package playout は、ゲームを最後までプレイアウトして勝率を推定します。
package playout

import (
	"errors"
	"fmt"
	"github.com/seehuhn/mt19937"
	"github.com/sw965/obstgarten/game"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"math"
	"math/rand"
)

var (
	ErrNoTrials = errors.New("number of trials must be positive")
	ErrNoRNGs   = errors.New("at least one rng is required")
)

// Orchard is the physical game position: tree i is always the same tree.
type Orchard struct {
	Trees [game.NumTrees]int
	Raven int
}

func NewOrchard(cfg game.Config) Orchard {
	o := Orchard{Raven: cfg.Raven}
	for i := range o.Trees {
		o.Trees[i] = cfg.Fruit
	}
	return o
}

// IsEnd reports whether the game is over and, if so, whether the players won.
func (o Orchard) IsEnd() (bool, bool) {
	if o.Raven == 0 {
		return true, false
	}
	for _, t := range o.Trees {
		if t > 0 {
			return false, false
		}
	}
	return true, true
}

func (o *Orchard) harvest(i int) {
	o.Trees[i] = max(o.Trees[i]-1, 0)
}

// PickFunc chooses the tree the next basket fruit is taken from.
type PickFunc func(Orchard, *rand.Rand) int

// FullestPickFunc picks the first tree with the most fruit.
func FullestPickFunc(o Orchard, _ *rand.Rand) int {
	idx, most := 0, 0
	for i, t := range o.Trees {
		if t > most {
			idx, most = i, t
		}
	}
	return idx
}

// EmptiestPickFunc picks the last tree with the fewest, but some, fruit.
func EmptiestPickFunc(o Orchard, _ *rand.Rand) int {
	idx, least := 0, math.MaxInt
	for i, t := range o.Trees {
		if t > 0 && t <= least {
			idx, least = i, t
		}
	}
	return idx
}

// UniformPickFunc picks uniformly among the trees that still carry fruit.
func UniformPickFunc(o Orchard, rng *rand.Rand) int {
	options := make([]int, 0, game.NumTrees)
	for i, t := range o.Trees {
		if t > 0 {
			options = append(options, i)
		}
	}
	if len(options) == 0 {
		return 0
	}
	return options[rng.Intn(len(options))]
}

func NewPickFunc(s game.Strategy) (PickFunc, error) {
	switch s {
	case game.Positive:
		return FullestPickFunc, nil
	case game.Negative:
		return EmptiestPickFunc, nil
	case game.Random:
		return UniformPickFunc, nil
	}
	return nil, fmt.Errorf("%w: %d", game.ErrUnknownStrategy, int(s))
}

type Engine struct {
	Config   game.Config
	PickFunc PickFunc
}

func NewEngine(cfg game.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pick, err := NewPickFunc(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return &Engine{Config: cfg, PickFunc: pick}, nil
}

// Playout plays one game from the full orchard and returns whether the
// players won and how many times the die was thrown.
func (e *Engine) Playout(rng *rand.Rand) (bool, int) {
	o := NewOrchard(e.Config)
	throws := 0
	for {
		if end, victory := o.IsEnd(); end {
			return victory, throws
		}

		face := game.Faces[rng.Intn(game.NumFaces)]
		throws++
		switch face {
		case game.RavenFace:
			o.Raven = max(o.Raven-1, 0)
		case game.BasketFace:
			for range e.Config.Basket {
				o.harvest(e.PickFunc(o, rng))
			}
		default:
			i, _ := face.TreeIndex()
			o.harvest(i)
		}
	}
}

// Playouts plays trials games spread over len(rngs) workers, each worker
// owning one rng. The estimate depends only on the rngs and trials.
func (e *Engine) Playouts(trials int, rngs []*rand.Rand) (Estimate, error) {
	if trials <= 0 {
		return Estimate{}, fmt.Errorf("%w: %d", ErrNoTrials, trials)
	}
	p := len(rngs)
	if p == 0 {
		return Estimate{}, ErrNoRNGs
	}
	if e.PickFunc == nil {
		return Estimate{}, fmt.Errorf("PickFunc must not be nil")
	}

	wins := make([]int, p)
	throws := make([]float64, trials)

	var g errgroup.Group
	for workerId := range p {
		g.Go(func() error {
			rng := rngs[workerId]
			for idx := workerId; idx < trials; idx += p {
				victory, n := e.Playout(rng)
				if victory {
					wins[workerId]++
				}
				throws[idx] = float64(n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	total := 0
	for _, w := range wins {
		total += w
	}
	mean, std := stat.MeanStdDev(throws, nil)
	return Estimate{
		Trials:       trials,
		Wins:         total,
		Rate:         float64(total) / float64(trials),
		MeanThrows:   mean,
		ThrowsStdErr: stat.StdErr(std, float64(trials)),
	}, nil
}

// NewRNGs returns n Mersenne Twister generators seeded seed, seed+1, ...
func NewRNGs(seed int64, n int) []*rand.Rand {
	rngs := make([]*rand.Rand, n)
	for i := range rngs {
		src := mt19937.New()
		src.Seed(seed + int64(i))
		rngs[i] = rand.New(src)
	}
	return rngs
}

type Estimate struct {
	Trials       int     `json:"trials"`
	Wins         int     `json:"wins"`
	Rate         float64 `json:"rate"`
	MeanThrows   float64 `json:"mean_throws"`
	ThrowsStdErr float64 `json:"throws_std_err"`
}

// Interval returns the Wilson score interval of the win rate at the given
// confidence level, e.g. 0.99.
func (e Estimate) Interval(level float64) (float64, float64) {
	if e.Trials == 0 {
		return 0, 1
	}
	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	n := float64(e.Trials)
	p := e.Rate
	z2 := z * z
	den := 1 + z2/n
	center := (p + z2/(2*n)) / den
	half := z / den * math.Sqrt(p*(1-p)/n+z2/(4*n*n))
	return max(center-half, 0), min(center+half, 1)
}

func (e Estimate) Contains(p, level float64) bool {
	lo, hi := e.Interval(level)
	return lo <= p && p <= hi
}
