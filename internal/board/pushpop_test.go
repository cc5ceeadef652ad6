package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestPushPopRoundTrip checks that Push followed by Pop returns a
// position byte-identical to the one before Push, for every legal move
// in a handful of representative positions (castling, en passant,
// promotion, a quiet middlegame position).
func TestPushPopRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
		"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N w - - 0 1",
	}

	opts := cmp.AllowUnexported(Position{}, HistoryEntry{})

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		var moves MoveList
		pos.GenerateLegalMoves(&moves)

		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			before := *pos

			pos.Push(m)
			pos.Pop()

			if diff := cmp.Diff(before, *pos, opts); diff != "" {
				t.Errorf("fen %q move %s: Push/Pop not a no-op (-before +after):\n%s", fen, m, diff)
			}
		}
	}
}

// TestPushNullPopNullRoundTrip checks the same invariant for the null
// move used by null-move pruning (§4.7).
func TestPushNullPopNullRoundTrip(t *testing.T) {
	pos := NewPosition()
	before := *pos

	pos.PushNull()
	pos.PopNull()

	opts := cmp.AllowUnexported(Position{}, HistoryEntry{})
	if diff := cmp.Diff(before, *pos, opts); diff != "" {
		t.Errorf("PushNull/PopNull not a no-op (-before +after):\n%s", diff)
	}
}
