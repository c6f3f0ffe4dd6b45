// Package markov builds the absorbing Markov chain of Obstgarten: the canonical
// state space with its classification, and the transition matrix under a
// basket strategy.
//
// Package markov は、オブストガルテンの吸収マルコフ連鎖（状態空間と遷移行列）を構築します。
package markov

import (
	"errors"
	"fmt"
	"github.com/sw965/obstgarten/game"
)

var (
	ErrInvalidSize      = errors.New("state space size must not be negative")
	ErrClassification   = errors.New("classification invariant violated")
	ErrStateNotFound    = errors.New("state is not part of the state space")
	ErrRowNotNormalized = errors.New("transition row does not sum to 1")
	ErrMassNotConserved = errors.New("basket outcomes do not sum to 1")
)

// Tolerance bounds the rounding error accepted when checking that probability mass sums to 1.
const Tolerance = 1e-9

// Space is the canonical state space. States are kept in enumeration order and
// Index is the inverse of States.
type Space struct {
	Fruit   int
	Raven   int
	States  []game.State
	Index   map[game.State]int
	ByClass [game.NumClasses][]int
}

// Enumerate lists every canonical state for the given fruit per tree and raven
// length. Trees are visited as non-increasing quadruples so that no
// permutation is produced twice.
func Enumerate(fruit, raven int) (*Space, error) {
	if fruit < 0 || raven < 0 {
		return nil, fmt.Errorf("%w: fruit=%d raven=%d", ErrInvalidSize, fruit, raven)
	}

	n := Size(fruit, raven)
	space := &Space{
		Fruit:  fruit,
		Raven:  raven,
		States: make([]game.State, 0, n),
		Index:  make(map[game.State]int, n),
	}

	for a := fruit; a >= 0; a-- {
		for b := a; b >= 0; b-- {
			for c := b; c >= 0; c-- {
				for d := c; d >= 0; d-- {
					// カラスは木とは独立
					for r := raven; r >= 0; r-- {
						s := game.NewState(a, b, c, d, r)
						idx := len(space.States)
						space.States = append(space.States, s)
						space.Index[s] = idx
						class := s.Class()
						space.ByClass[class] = append(space.ByClass[class], idx)
					}
				}
			}
		}
	}
	return space, nil
}

// Size is the number of canonical states: C(fruit+4, 4) tree quadruples times
// raven+1 raven positions.
func Size(fruit, raven int) int {
	return binomial(fruit+game.NumTrees, game.NumTrees) * (raven + 1)
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	y := 1
	for i := 1; i <= k; i++ {
		y = y * (n - k + i) / i
	}
	return y
}

func (sp *Space) Len() int {
	return len(sp.States)
}

func (sp *Space) Count(c game.Class) int {
	return len(sp.ByClass[c])
}

func (sp *Space) IndexOf(s game.State) (int, bool) {
	idx, ok := sp.Index[s]
	return idx, ok
}

// Start is the state every game begins in.
func (sp *Space) Start() game.State {
	return game.NewState(sp.Fruit, sp.Fruit, sp.Fruit, sp.Fruit, sp.Raven)
}

// Validate checks that every state falls into exactly one class, that the
// class of each index set matches its members, and that Index inverts States.
func (sp *Space) Validate() error {
	n := len(sp.States)
	if len(sp.Index) != n {
		return fmt.Errorf("%w: %d states but %d index entries", ErrClassification, n, len(sp.Index))
	}

	seen := make([]int, n)
	total := 0
	for _, class := range game.Classes {
		for _, idx := range sp.ByClass[class] {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: %v index %d out of range", ErrClassification, class, idx)
			}
			s := sp.States[idx]
			if got := s.Class(); got != class {
				return fmt.Errorf("%w: %v listed as %v but is %v", ErrClassification, s, class, got)
			}
			seen[idx]++
			total++
		}
	}
	if total != n {
		return fmt.Errorf("%w: classes cover %d of %d states", ErrClassification, total, n)
	}

	for idx, s := range sp.States {
		if seen[idx] != 1 {
			return fmt.Errorf("%w: %v belongs to %d classes", ErrClassification, s, seen[idx])
		}
		if !s.IsCanonical() {
			return fmt.Errorf("%w: %v is not canonical", ErrClassification, s)
		}
		if got, ok := sp.Index[s]; !ok || got != idx {
			return fmt.Errorf("%w: %v has index %d, want %d", ErrClassification, s, got, idx)
		}
	}
	return nil
}
