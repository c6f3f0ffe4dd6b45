package markov

import (
	"fmt"
	"github.com/sw965/obstgarten/game"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"runtime"
	"slices"
	"sort"
)

// Entry is one nonzero cell of a transition row.
type Entry struct {
	Col int
	P   float64
}

// Matrix is the transition matrix of a Space, stored as sparse rows sorted by
// column. It is not modified after Build.
type Matrix struct {
	Strategy game.Strategy
	Basket   int
	rows     [][]Entry
}

// NewMatrix wraps rows filled elsewhere. The rows are taken as given; call
// Validate before solving with them.
func NewMatrix(strategy game.Strategy, basket int, rows [][]Entry) *Matrix {
	return &Matrix{Strategy: strategy, Basket: basket, rows: rows}
}

type buildOptions struct {
	workers int
}

type BuildOption func(*buildOptions)

// WithWorkers bounds the number of goroutines filling rows. Values below 1
// fall back to GOMAXPROCS.
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) {
		o.workers = n
	}
}

// RowOutcomes returns the unnormalized row of s: one unit of mass per die
// face, six in total. Absorbing states loop onto themselves.
func RowOutcomes(s game.State, strategy game.Strategy, basket int) (Outcomes, error) {
	if s.Class().IsAbsorbing() {
		return Outcomes{s: game.NumFaces}, nil
	}

	out := Outcomes{}
	for _, face := range game.Faces {
		switch face {
		case game.RavenFace:
			out.Add(s.FeedRaven(), 1)
		case game.BasketFace:
			basketOut, err := BasketOutcomes(s, strategy, basket)
			if err != nil {
				return nil, err
			}
			for _, to := range basketOut.States() {
				out.Add(to, basketOut[to])
			}
		default:
			i, _ := face.TreeIndex()
			out.Add(s.PickTree(i), 1)
		}
	}
	return out, nil
}

// Build fills the transition matrix of space under strategy and checks that
// every row sums to 1.
func Build(space *Space, strategy game.Strategy, basket int, opts ...BuildOption) (*Matrix, error) {
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: %d", game.ErrUnknownStrategy, int(strategy))
	}
	if basket < 0 {
		return nil, fmt.Errorf("%w: basket=%d", ErrInvalidSize, basket)
	}

	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	p := o.workers
	if p < 1 {
		p = runtime.GOMAXPROCS(0)
	}

	n := space.Len()
	p = min(p, max(n, 1))
	rows := make([][]Entry, n)

	var g errgroup.Group
	for workerId := range p {
		g.Go(func() error {
			for idx := workerId; idx < n; idx += p {
				row, err := buildRow(space, space.States[idx], strategy, basket)
				if err != nil {
					return err
				}
				rows[idx] = row
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := NewMatrix(strategy, basket, rows)
	if err := m.Validate(space); err != nil {
		return nil, err
	}
	return m, nil
}

func buildRow(space *Space, s game.State, strategy game.Strategy, basket int) ([]Entry, error) {
	out, err := RowOutcomes(s, strategy, basket)
	if err != nil {
		return nil, err
	}

	row := make([]Entry, 0, len(out))
	for _, to := range out.States() {
		col, ok := space.IndexOf(to)
		if !ok {
			return nil, fmt.Errorf("%w: %v -> %v", ErrStateNotFound, s, to)
		}
		row = append(row, Entry{Col: col, P: out[to] / game.NumFaces})
	}
	slices.SortFunc(row, func(a, b Entry) int { return a.Col - b.Col })
	return row, nil
}

// Validate checks that the matrix is square over space and that every row
// sums to 1 within Tolerance.
func (m *Matrix) Validate(space *Space) error {
	n := len(m.rows)
	if n != space.Len() {
		return fmt.Errorf("%w: %d rows for %d states", ErrRowNotNormalized, n, space.Len())
	}
	for i, row := range m.rows {
		ps := make([]float64, len(row))
		for j, e := range row {
			if e.Col < 0 || e.Col >= n {
				return fmt.Errorf("%w: %v column %d out of range", ErrStateNotFound, space.States[i], e.Col)
			}
			ps[j] = e.P
		}
		if sum := floats.Sum(ps); !scalar.EqualWithinAbs(sum, 1, Tolerance) {
			return fmt.Errorf("%w: %v sums to %.17g", ErrRowNotNormalized, space.States[i], sum)
		}
	}
	return nil
}

func (m *Matrix) Len() int {
	return len(m.rows)
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []Entry {
	return slices.Clone(m.rows[i])
}

func (m *Matrix) At(i, j int) float64 {
	row := m.rows[i]
	k := sort.Search(len(row), func(k int) bool { return row[k].Col >= j })
	if k < len(row) && row[k].Col == j {
		return row[k].P
	}
	return 0
}

// Dense expands the matrix. Only meant for small chains.
func (m *Matrix) Dense() *mat.Dense {
	n := len(m.rows)
	d := mat.NewDense(n, n, nil)
	for i, row := range m.rows {
		for _, e := range row {
			d.Set(i, e.Col, e.P)
		}
	}
	return d
}
