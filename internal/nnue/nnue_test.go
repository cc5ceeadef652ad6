package nnue

import (
	"testing"

	"github.com/corvidchess/engine/internal/board"
)

// TestIncrementalMatchesRefresh walks a handful of plies in a few games
// and checks that the incrementally updated accumulator (Push+Update)
// agrees with a from-scratch Refresh after every move. Deterministic
// random weights make this a pure plumbing check, not an evaluation
// quality check.
func TestIncrementalMatchesRefresh(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
	}

	for _, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		ev, err := NewEvaluator("")
		if err != nil {
			t.Fatalf("NewEvaluator: %v", err)
		}
		ev.Refresh(pos)

		var moves board.MoveList
		pos.GenerateLegalMoves(&moves)

		for i := 0; i < moves.Len() && i < 8; i++ {
			m := moves.Get(i)
			pos.Push(m)
			ev.Push()
			ev.Update(pos)

			got := ev.Evaluate(pos)

			fresh, err := NewEvaluator("")
			if err != nil {
				t.Fatalf("NewEvaluator: %v", err)
			}
			fresh.Refresh(pos)
			want := fresh.Evaluate(pos)

			if got != want {
				t.Errorf("fen %q move %d (%s): incremental eval %d != refreshed eval %d", fen, i, m, got, want)
			}

			ev.Pop()
			pos.Pop()
		}
	}
}

// TestPushPopSymmetric checks that pushing and popping the accumulator
// stack without any Update in between leaves the evaluation unchanged,
// mirroring Position's own Push/Pop no-op invariant.
func TestPushPopSymmetric(t *testing.T) {
	pos := board.NewPosition()
	ev, err := NewEvaluator("")
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	ev.Refresh(pos)

	before := ev.Evaluate(pos)
	ev.Push()
	ev.Pop()
	after := ev.Evaluate(pos)

	if before != after {
		t.Errorf("Push/Pop changed evaluation: %d != %d", before, after)
	}
}
