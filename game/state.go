package game

import (
	"fmt"
	"slices"
)

const NumTrees = 4

// State is one position of the game: the remaining fruit on each tree and
// the number of steps the raven still has to go.
//
// Stateは、各木に残っている果物の数と、カラスが残り何歩進めるかを表します。
type State struct {
	Trees [NumTrees]int `json:"trees"`
	Raven int           `json:"raven"`
}

func NewState(t0, t1, t2, t3, raven int) State {
	return State{Trees: [NumTrees]int{t0, t1, t2, t3}, Raven: raven}
}

// Canonical returns the copy of s whose trees are sorted in descending order.
// The trees are interchangeable, so every permutation collapses to this one.
//
// Canonicalは、木を降順に並べたsのコピーを返します。
func (s State) Canonical() State {
	slices.SortFunc(s.Trees[:], func(a, b int) int { return b - a })
	return s
}

func (s State) IsCanonical() bool {
	for i := 1; i < NumTrees; i++ {
		if s.Trees[i-1] < s.Trees[i] {
			return false
		}
	}
	return s.Trees[NumTrees-1] >= 0
}

func (s State) Fruit() int {
	sum := 0
	for _, t := range s.Trees {
		sum += t
	}
	return sum
}

// NonEmptyTrees returns the number of trees that still carry fruit.
func (s State) NonEmptyTrees() int {
	k := 0
	for _, t := range s.Trees {
		if t > 0 {
			k++
		}
	}
	return k
}

// PickTree removes one fruit from tree i (never below zero) and returns the
// canonical result.
func (s State) PickTree(i int) State {
	s.Trees[i] = max(s.Trees[i]-1, 0)
	return s.Canonical()
}

// FeedRaven advances the raven by one step (never below zero).
func (s State) FeedRaven() State {
	s.Raven = max(s.Raven-1, 0)
	return s
}

func (s State) Class() Class {
	fruit := s.Fruit()
	switch {
	case fruit == 0 && s.Raven == 0:
		return Unreachable
	case fruit == 0:
		return Victory
	case s.Raven == 0:
		return Defeat
	default:
		return Transient
	}
}

// Compare orders states the way the state space enumerates them: fuller trees
// first, then the raven from far to near. It returns -1 when s comes first.
func (s State) Compare(o State) int {
	for i := range NumTrees {
		if s.Trees[i] != o.Trees[i] {
			if s.Trees[i] > o.Trees[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case s.Raven > o.Raven:
		return -1
	case s.Raven < o.Raven:
		return 1
	}
	return 0
}

func (s State) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d, %d]", s.Trees[0], s.Trees[1], s.Trees[2], s.Trees[3], s.Raven)
}

// Class is the role a state plays in the absorbing chain.
//
// Classは、吸収マルコフ連鎖における状態の役割を表します。
type Class int

const (
	Transient Class = iota
	Victory
	Defeat
	Unreachable
)

const NumClasses = 4

var Classes = [NumClasses]Class{Transient, Victory, Defeat, Unreachable}

func (c Class) IsAbsorbing() bool {
	return c != Transient
}

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case Unreachable:
		return "unreachable"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}
