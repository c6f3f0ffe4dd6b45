package markov

import (
	"fmt"
	"github.com/sw965/obstgarten/game"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"maps"
	"slices"
)

// Outcomes accumulates probability mass per canonical outgoing state.
type Outcomes map[game.State]float64

func (o Outcomes) Add(s game.State, p float64) {
	o[s] += p
}

// States returns the outgoing states in enumeration order.
func (o Outcomes) States() []game.State {
	return slices.SortedFunc(maps.Keys(o), game.State.Compare)
}

func (o Outcomes) Mass() float64 {
	ps := make([]float64, 0, len(o))
	for _, s := range o.States() {
		ps = append(ps, o[s])
	}
	return floats.Sum(ps)
}

// CheckMass reports ErrMassNotConserved unless the outcomes sum to 1 within Tolerance.
func (o Outcomes) CheckMass() error {
	if mass := o.Mass(); !scalar.EqualWithinAbs(mass, 1, Tolerance) {
		return fmt.Errorf("%w: got %.17g", ErrMassNotConserved, mass)
	}
	return nil
}

// BasketOutcomes resolves the basket face: basket fruits are picked one at a
// time from the canonical state s according to strategy. The deterministic
// strategies yield a single outcome. The random strategy expands every pick
// uniformly over the trees that still carry fruit and merges identical
// canonical states after each pick.
func BasketOutcomes(s game.State, strategy game.Strategy, basket int) (Outcomes, error) {
	from := s.Canonical()

	var outcomes Outcomes
	switch strategy {
	case game.Positive:
		to := from
		for range basket {
			to = to.PickTree(game.PositivePick(to))
		}
		outcomes = Outcomes{to: 1}
	case game.Negative:
		to := from
		for range basket {
			to = to.PickTree(game.NegativePick(to))
		}
		outcomes = Outcomes{to: 1}
	case game.Random:
		outcomes = randomBasket(from, basket)
	default:
		return nil, fmt.Errorf("%w: %d", game.ErrUnknownStrategy, int(strategy))
	}

	if err := outcomes.CheckMass(); err != nil {
		return nil, fmt.Errorf("basket from %v under %v: %w", from, strategy, err)
	}
	return outcomes, nil
}

func randomBasket(s game.State, basket int) Outcomes {
	current := Outcomes{s: 1}
	for range basket {
		next := make(Outcomes, len(current)*game.NumTrees)
		for _, from := range current.States() {
			p := current[from]
			k := from.NonEmptyTrees()
			if k == 0 {
				next.Add(from, p)
				continue
			}
			// 果物が残っている木は降順で先頭k本
			pk := p / float64(k)
			for i := range k {
				next.Add(from.PickTree(i), pk)
			}
		}
		current = next
	}
	return current
}
