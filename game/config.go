package game

import (
	"fmt"
)

// Face is one side of the six-sided die.
type Face int

const (
	Tree0 Face = iota
	Tree1
	Tree2
	Tree3
	RavenFace
	BasketFace
)

const NumFaces = 6

var Faces = [NumFaces]Face{Tree0, Tree1, Tree2, Tree3, RavenFace, BasketFace}

// TreeIndex reports which tree a tree face harvests.
func (f Face) TreeIndex() (int, bool) {
	if f >= Tree0 && f <= Tree3 {
		return int(f - Tree0), true
	}
	return 0, false
}

func (f Face) String() string {
	switch f {
	case Tree0, Tree1, Tree2, Tree3:
		return fmt.Sprintf("tree%d", int(f))
	case RavenFace:
		return "raven"
	case BasketFace:
		return "basket"
	}
	return fmt.Sprintf("Face(%d)", int(f))
}

// Config holds the parameters of one analysis run.
//
// Configは、1回の解析の設定を保持します。
type Config struct {
	Fruit    int      `yaml:"fruit" json:"fruit"`
	Raven    int      `yaml:"raven" json:"raven"`
	Basket   int      `yaml:"basket" json:"basket"`
	Strategy Strategy `yaml:"strategy" json:"strategy"`
}

func (c Config) Validate() error {
	if c.Fruit <= 0 {
		return fmt.Errorf("%w: fruit must be positive, got %d", ErrInvalidConfig, c.Fruit)
	}
	if c.Raven <= 0 {
		return fmt.Errorf("%w: raven must be positive, got %d", ErrInvalidConfig, c.Raven)
	}
	if c.Basket <= 0 {
		return fmt.Errorf("%w: basket must be positive, got %d", ErrInvalidConfig, c.Basket)
	}
	if !c.Strategy.IsValid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrUnknownStrategy, int(c.Strategy))
	}
	return nil
}

// Start returns the initial state: every tree full and the raven at the start of its path.
func (c Config) Start() State {
	return NewState(c.Fruit, c.Fruit, c.Fruit, c.Fruit, c.Raven)
}
