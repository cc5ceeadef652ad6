package engine

import (
	"testing"
	"time"

	"github.com/corvidchess/engine/internal/board"
)

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng, err := NewEngine(16, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	move, _ := eng.Search(pos, UCILimits{MoveTime: 300 * time.Millisecond})
	if move == board.NoMove {
		t.Error("search returned NoMove for the starting position")
	}
	t.Logf("best move: %s", move.String())
}

func TestSearchFixedDepth(t *testing.T) {
	pos := board.NewPosition()
	eng, err := NewEngine(16, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	move, score := eng.Search(pos, UCILimits{Depth: 6})
	if move == board.NoMove {
		t.Fatal("search returned NoMove for the starting position")
	}
	if abs(score) >= 150 {
		t.Errorf("expected a roughly balanced starting-position score, got %d", score)
	}
}

func TestConcurrentSearchRace(t *testing.T) {
	eng, err := NewEngine(16, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	fens := []string{
		board.StartFEN,
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
		"rnbqkbnr/ppp1pppp/8/3p4/3P4/8/PPP1PPPP/RNBQKBNR w KQkq d6 0 2",
	}

	iterations := 6
	if testing.Short() {
		iterations = 2
	}

	for i := 0; i < iterations; i++ {
		pos, err := board.ParseFEN(fens[i%len(fens)])
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		move, _ := eng.Search(pos, UCILimits{MoveTime: 200 * time.Millisecond})
		if move == board.NoMove {
			t.Errorf("iteration %d: search returned NoMove", i)
		}
	}
}

func TestPerft(t *testing.T) {
	eng, err := NewEngine(16, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	pos := board.NewPosition()

	cases := []struct {
		depth int
		nodes uint64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	}
	for _, c := range cases {
		if got := eng.Perft(pos, c.depth); got != c.nodes {
			t.Errorf("perft(%d) = %d, want %d", c.depth, got, c.nodes)
		}
	}
}
