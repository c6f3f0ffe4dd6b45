// Package solver computes absorption probabilities of the Obstgarten chain by
// solving (Q - I) X = -C on the transient sub-chain with a dense direct solver.
package solver

import (
	"errors"
	"fmt"
	"github.com/sw965/obstgarten/game"
	"github.com/sw965/obstgarten/markov"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
)

var (
	ErrSingularSystem   = errors.New("Q - I is singular")
	ErrUndefinedOutcome = errors.New("outcome is undefined")
	ErrNotAbsorbing     = errors.New("win and loss probabilities do not sum to 1")
)

// AbsorbTolerance bounds |Win + Loss - 1|.
const AbsorbTolerance = 1e-6

type Method int

const (
	// Auto uses Triangular when the transient block is upper triangular in
	// enumeration order and LU otherwise.
	Auto Method = iota
	Triangular
	LU
)

func (m Method) String() string {
	switch m {
	case Auto:
		return "auto"
	case Triangular:
		return "triangular"
	case LU:
		return "lu"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func ParseMethod(name string) (Method, error) {
	switch name {
	case "", "auto":
		return Auto, nil
	case "triangular":
		return Triangular, nil
	case "lu":
		return LU, nil
	}
	return 0, fmt.Errorf("unknown solve method %q (want auto, triangular or lu)", name)
}

type options struct {
	method Method
}

type Option func(*options)

func WithMethod(m Method) Option {
	return func(o *options) {
		o.method = m
	}
}

// Absorption is the probability of ending the game in State.
type Absorption struct {
	State game.State
	P     float64
}

type Result struct {
	Start      game.State
	StartClass game.Class
	Method     Method

	// Victories holds, for every victory state, the probability of being
	// absorbed there from Start. Win is their sum.
	Victories      []Absorption
	Win            float64
	Loss           float64
	ExpectedThrows float64

	rowByState map[game.State]int
	winFrom    []float64
	throwsFrom []float64
}

// WinFrom returns the win probability when starting in the transient state s.
func (r *Result) WinFrom(s game.State) (float64, bool) {
	i, ok := r.rowByState[s.Canonical()]
	if !ok {
		return 0, false
	}
	return r.winFrom[i], true
}

// ExpectedThrowsFrom returns the expected number of throws until the game ends
// when starting in the transient state s.
func (r *Result) ExpectedThrowsFrom(s game.State) (float64, bool) {
	i, ok := r.rowByState[s.Canonical()]
	if !ok {
		return 0, false
	}
	return r.throwsFrom[i], true
}

// Solve computes the absorption probabilities from the start state of space.
// Every victory state gets its own right-hand side column; all defeat states
// share one aggregate column and a column of ones yields the expected number
// of throws. A single factorization serves all columns.
func Solve(space *markov.Space, m *markov.Matrix, opts ...Option) (*Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	start := space.Start()
	result := &Result{Start: start, StartClass: start.Class(), Method: o.method}
	switch result.StartClass {
	case game.Unreachable:
		return nil, fmt.Errorf("%w: start state %v can never be entered", ErrUndefinedOutcome, start)
	case game.Victory:
		result.Victories = []Absorption{{State: start, P: 1}}
		result.Win = 1
		return result, nil
	case game.Defeat:
		result.Loss = 1
		return result, nil
	}

	transient := space.ByClass[game.Transient]
	victories := space.ByClass[game.Victory]
	n := len(transient)
	nv := len(victories)
	lossCol := nv
	onesCol := nv + 1

	pos := make([]int, space.Len())
	for i := range pos {
		pos[i] = -1
	}
	for i, idx := range transient {
		pos[idx] = i
	}
	vpos := make(map[int]int, nv)
	for k, idx := range victories {
		vpos[idx] = k
	}

	method := o.method
	if method == Auto {
		method = LU
		if isUpperTriangular(m, transient, pos) {
			method = Triangular
		}
	}
	result.Method = method

	b := mat.NewDense(n, nv+2, nil)
	var a mutable
	var tri *mat.TriDense
	var dense *mat.Dense
	switch method {
	case Triangular:
		tri = mat.NewTriDense(n, mat.Upper, nil)
		a = triSetter{tri}
	case LU:
		dense = mat.NewDense(n, n, nil)
		a = dense
	default:
		return nil, fmt.Errorf("unknown solve method %v", method)
	}

	for i, idx := range transient {
		diag := -1.0
		for _, e := range m.Row(idx) {
			if j := pos[e.Col]; j >= 0 {
				if j == i {
					diag += e.P
					continue
				}
				if method == Triangular && j < i {
					return nil, fmt.Errorf("%w: %v reaches earlier state %v", ErrSingularSystem, space.States[idx], space.States[e.Col])
				}
				a.Set(i, j, e.P)
				continue
			}
			to := space.States[e.Col]
			switch to.Class() {
			case game.Victory:
				b.Set(i, vpos[e.Col], -e.P)
			case game.Defeat:
				b.Set(i, lossCol, b.At(i, lossCol)-e.P)
			default:
				return nil, fmt.Errorf("%w: %v reaches %v", ErrUndefinedOutcome, space.States[idx], to)
			}
		}
		// 自己ループしかない遷移状態は吸収状態の分類ミス
		if diag == 0 {
			return nil, fmt.Errorf("%w: %v never leaves itself", ErrSingularSystem, space.States[idx])
		}
		a.Set(i, i, diag)
		b.Set(i, onesCol, -1)
	}

	var x mat.Dense
	var err error
	switch method {
	case Triangular:
		err = x.Solve(tri, b)
	case LU:
		var lu mat.LU
		lu.Factorize(dense)
		err = lu.SolveTo(&x, false, b)
	}
	if err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: condition number %g", ErrSingularSystem, float64(cond))
		}
		return nil, fmt.Errorf("%w: %w", ErrSingularSystem, err)
	}

	startRow := pos[space.Index[start]]
	result.Victories = make([]Absorption, nv)
	ps := make([]float64, nv)
	for k, idx := range victories {
		p := x.At(startRow, k)
		result.Victories[k] = Absorption{State: space.States[idx], P: p}
		ps[k] = p
	}
	result.Win = floats.Sum(ps)
	result.Loss = x.At(startRow, lossCol)
	result.ExpectedThrows = x.At(startRow, onesCol)

	result.rowByState = make(map[game.State]int, n)
	result.winFrom = make([]float64, n)
	result.throwsFrom = make([]float64, n)
	xv := x.Slice(0, n, 0, nv)
	for i, idx := range transient {
		result.rowByState[space.States[idx]] = i
		result.winFrom[i] = floats.Sum(mat.Row(ps, i, xv))
		result.throwsFrom[i] = x.At(i, onesCol)
	}

	if total := result.Win + result.Loss; math.IsNaN(total) || math.Abs(total-1) > AbsorbTolerance {
		return nil, fmt.Errorf("%w: win %.12g + loss %.12g from %v", ErrNotAbsorbing, result.Win, result.Loss, start)
	}
	return result, nil
}

type mutable interface {
	Set(i, j int, v float64)
}

type triSetter struct {
	t *mat.TriDense
}

func (s triSetter) Set(i, j int, v float64) {
	s.t.SetTri(i, j, v)
}

// isUpperTriangular reports whether no transient row moves to a transient
// state that precedes it. Fruit and raven never grow, so with the
// enumeration order this always holds for a well formed chain.
func isUpperTriangular(m *markov.Matrix, transient, pos []int) bool {
	for i, idx := range transient {
		for _, e := range m.Row(idx) {
			if j := pos[e.Col]; j >= 0 && j < i {
				return false
			}
		}
	}
	return true
}
