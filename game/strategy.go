package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Strategy decides which trees the basket face harvests.
//
// Strategyは、カゴの目が出た時にどの木から果物を取るかを決めます。
type Strategy int

const (
	// Positive always picks the fullest tree.
	Positive Strategy = iota
	// Negative always picks the emptiest tree that still carries fruit.
	Negative
	// Random picks uniformly among the trees that still carry fruit.
	Random
)

var Strategies = []Strategy{Positive, Negative, Random}

func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	case "random":
		return Random, nil
	}
	return 0, fmt.Errorf("%w: %q (want positive, negative or random)", ErrUnknownStrategy, name)
}

func (s Strategy) IsValid() bool {
	return s == Positive || s == Negative || s == Random
}

func (s Strategy) String() string {
	switch s {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Random:
		return "random"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func (s Strategy) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// PositivePick returns the index of the fullest tree of a canonical state,
// which is always the first. It takes the state to share NegativePick's signature.
func PositivePick(_ State) int {
	return 0
}

// NegativePick returns the index of the emptiest nonzero tree of a canonical
// state, falling back to the fullest tree when all trees are empty.
func NegativePick(s State) int {
	for i := NumTrees - 1; i > 0; i-- {
		if s.Trees[i] != 0 {
			return i
		}
	}
	return 0
}
