package board

import "testing"

// TestInsufficientMaterial checks the two-piece and bishop/knight-only
// three-piece draw cases, and that a single extra pawn or rook defeats
// the rule.
func TestInsufficientMaterial(t *testing.T) {
	cases := []struct {
		fen  string
		want bool
	}{
		{"8/8/4k3/8/8/3K4/8/8 w - - 0 1", true},           // bare kings
		{"8/8/4k3/8/8/3KB3/8/8 w - - 0 1", true},           // king + bishop
		{"8/8/4k3/8/8/3KN3/8/8 w - - 0 1", true},           // king + knight
		{"8/8/4k3/8/8/3KP3/8/8 w - - 0 1", false},          // king + pawn
		{"8/8/4k3/8/8/3KR3/8/8 w - - 0 1", false},          // king + rook
		{"8/8/4k3/8/8/3KBB2/8/8 w - - 0 1", false},         // king + two bishops
	}

	for _, tc := range cases {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		if got := pos.IsInsufficientMaterial(); got != tc.want {
			t.Errorf("IsInsufficientMaterial(%q) = %v, want %v", tc.fen, got, tc.want)
		}
	}
}

// TestFiftyMoveDraw checks the half-move clock threshold.
func TestFiftyMoveDraw(t *testing.T) {
	pos, err := ParseFEN("8/8/4k3/8/8/3K4/8/8 w - - 99 1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.IsFiftyMoveDraw() {
		t.Error("99 half-moves should not yet be a fifty-move draw")
	}

	pos, err = ParseFEN("8/8/4k3/8/8/3K4/8/8 w - - 100 1")
	if err != nil {
		t.Fatal(err)
	}
	if !pos.IsFiftyMoveDraw() {
		t.Error("100 half-moves should be a fifty-move draw")
	}
}

// TestRepetitionDetection shuffles a king back and forth until the same
// material hash recurs and checks IsRepetition fires on the first
// recurrence (the two-fold resolution of the Open Question on §4.3).
func TestRepetitionDetection(t *testing.T) {
	pos, err := ParseFEN("8/8/4k3/8/8/3K4/8/8 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	moveBetween := func(from, to Square) Move {
		var moves MoveList
		pos.GenerateLegalMoves(&moves)
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			if m.From() == from && m.To() == to {
				return m
			}
		}
		t.Fatalf("no legal move %s-%s found", from, to)
		return NoMove
	}

	if pos.IsRepetition() {
		t.Fatal("starting position should not be a repetition")
	}

	pos.Push(moveBetween(D3, D2)) // white king shuffles
	pos.Push(moveBetween(E6, E5)) // black king shuffles
	if pos.IsRepetition() {
		t.Fatal("position should not repeat after only one round trip")
	}

	pos.Push(moveBetween(D2, D3)) // back to start
	pos.Push(moveBetween(E5, E6)) // back to start

	if !pos.IsRepetition() {
		t.Error("expected a repetition after the king shuffle returned to the starting placement")
	}
	if !pos.IsDraw() {
		t.Error("IsDraw should report true once IsRepetition does")
	}
}
