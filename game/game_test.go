package game_test

import (
	"errors"
	"github.com/sw965/obstgarten/game"
	"testing"
)

func TestStateCanonical(t *testing.T) {
	tests := []struct {
		name  string
		state game.State
		want  game.State
	}{
		{
			name:  "already_sorted",
			state: game.NewState(4, 3, 2, 1, 5),
			want:  game.NewState(4, 3, 2, 1, 5),
		},
		{
			name:  "reversed",
			state: game.NewState(0, 1, 2, 3, 1),
			want:  game.NewState(3, 2, 1, 0, 1),
		},
		{
			name:  "ties",
			state: game.NewState(2, 5, 2, 5, 0),
			want:  game.NewState(5, 5, 2, 2, 0),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.state.Canonical()
			if got != tc.want {
				t.Errorf("want: %v, got: %v", tc.want, got)
			}
			if !got.IsCanonical() {
				t.Errorf("%v is not canonical", got)
			}
		})
	}
}

func TestStatePickTree(t *testing.T) {
	s := game.NewState(3, 3, 1, 0, 2)

	// 3番目の木を取ると並び替えが必要になる
	if got, want := s.PickTree(2), game.NewState(3, 3, 0, 0, 2); got != want {
		t.Errorf("want: %v, got: %v", want, got)
	}
	if got, want := s.PickTree(1), game.NewState(3, 2, 1, 0, 2); got != want {
		t.Errorf("want: %v, got: %v", want, got)
	}
	// 空の木からは取れない
	if got := s.PickTree(3); got != s {
		t.Errorf("want: %v, got: %v", s, got)
	}
	if got, want := s.FeedRaven(), game.NewState(3, 3, 1, 0, 1); got != want {
		t.Errorf("want: %v, got: %v", want, got)
	}
	if got, want := game.NewState(1, 0, 0, 0, 0).FeedRaven(), game.NewState(1, 0, 0, 0, 0); got != want {
		t.Errorf("want: %v, got: %v", want, got)
	}
}

func TestStateClass(t *testing.T) {
	tests := []struct {
		state game.State
		want  game.Class
	}{
		{game.NewState(0, 0, 0, 0, 0), game.Unreachable},
		{game.NewState(0, 0, 0, 0, 3), game.Victory},
		{game.NewState(1, 0, 0, 0, 0), game.Defeat},
		{game.NewState(10, 10, 10, 10, 0), game.Defeat},
		{game.NewState(1, 0, 0, 0, 1), game.Transient},
		{game.NewState(10, 10, 10, 10, 9), game.Transient},
	}

	for _, tc := range tests {
		t.Run(tc.state.String(), func(t *testing.T) {
			got := tc.state.Class()
			if got != tc.want {
				t.Errorf("want: %v, got: %v", tc.want, got)
			}
			if got.IsAbsorbing() == (tc.want == game.Transient) {
				t.Errorf("IsAbsorbing mismatch for %v", got)
			}
		})
	}
}

func TestPicks(t *testing.T) {
	tests := []struct {
		state        game.State
		wantNegative int
		wantNonEmpty int
	}{
		{game.NewState(3, 2, 2, 1, 1), 3, 4},
		{game.NewState(3, 2, 1, 0, 1), 2, 3},
		{game.NewState(3, 2, 0, 0, 1), 1, 2},
		{game.NewState(3, 0, 0, 0, 1), 0, 1},
		{game.NewState(0, 0, 0, 0, 1), 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.state.String(), func(t *testing.T) {
			if got := game.PositivePick(tc.state); got != 0 {
				t.Errorf("PositivePick want: 0, got: %d", got)
			}
			if got := game.NegativePick(tc.state); got != tc.wantNegative {
				t.Errorf("NegativePick want: %d, got: %d", tc.wantNegative, got)
			}
			if got := tc.state.NonEmptyTrees(); got != tc.wantNonEmpty {
				t.Errorf("NonEmptyTrees want: %d, got: %d", tc.wantNonEmpty, got)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name    string
		want    game.Strategy
		wantErr bool
	}{
		{name: "positive", want: game.Positive},
		{name: " Negative ", want: game.Negative},
		{name: "RANDOM", want: game.Random},
		{name: "greedy", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := game.ParseStrategy(tc.name)
			if tc.wantErr {
				if !errors.Is(err, game.ErrUnknownStrategy) {
					t.Fatalf("want ErrUnknownStrategy, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("want: %v, got: %v", tc.want, got)
			}
		})
	}
}

func TestStrategyText(t *testing.T) {
	for _, s := range game.Strategies {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", s, err)
		}
		var got game.Strategy
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if got != s {
			t.Errorf("want: %v, got: %v", s, got)
		}
	}

	if _, err := game.Strategy(7).MarshalText(); !errors.Is(err, game.ErrUnknownStrategy) {
		t.Errorf("want ErrUnknownStrategy, got: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  game.Config
		wantErr bool
	}{
		{name: "default", config: game.Config{Fruit: 10, Raven: 9, Basket: 2, Strategy: game.Positive}},
		{name: "smallest", config: game.Config{Fruit: 1, Raven: 1, Basket: 1, Strategy: game.Random}},
		{name: "zero_fruit", config: game.Config{Fruit: 0, Raven: 9, Basket: 2}, wantErr: true},
		{name: "negative_raven", config: game.Config{Fruit: 10, Raven: -1, Basket: 2}, wantErr: true},
		{name: "zero_basket", config: game.Config{Fruit: 10, Raven: 9, Basket: 0}, wantErr: true},
		{name: "unknown_strategy", config: game.Config{Fruit: 10, Raven: 9, Basket: 2, Strategy: 3}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr {
				if !errors.Is(err, game.ErrInvalidConfig) {
					t.Fatalf("want ErrInvalidConfig, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	start := game.Config{Fruit: 10, Raven: 9, Basket: 2}.Start()
	if want := game.NewState(10, 10, 10, 10, 9); start != want {
		t.Errorf("Start want: %v, got: %v", want, start)
	}
}

func TestFaceTreeIndex(t *testing.T) {
	trees := 0
	for _, f := range game.Faces {
		if i, ok := f.TreeIndex(); ok {
			if i != int(f) {
				t.Errorf("face %v: want index %d, got %d", f, int(f), i)
			}
			trees++
		}
	}
	if trees != game.NumTrees {
		t.Errorf("want %d tree faces, got %d", game.NumTrees, trees)
	}
}
