package engine

import (
	"github.com/corvidchess/engine/internal/board"
)

// Move ordering priority tiers. Constants satisfy
// HASH > PROMO > CAPTURE > KILLER > COUNTER > CASTLE > |history|.
const (
	hashScore    = 1 << 30
	promoScore   = 1 << 28
	captureScore = 1 << 26
	killerScore  = 1 << 20
	counterScore = 1 << 19
	castleScore  = 1 << 18
)

// mvvLva is MVV(victim) - LVA(attacker): higher victim value and lower
// attacker value search first among captures.
var mvvLva = [6][6]int{
	/*        P    N    B    R    Q    K  (attacker) */
	/* P */ {99, 98, 97, 96, 95, 94},
	/* N */ {199, 198, 197, 196, 195, 194},
	/* B */ {299, 298, 297, 296, 295, 294},
	/* R */ {399, 398, 397, 396, 395, 394},
	/* Q */ {499, 498, 497, 496, 495, 494},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds the per-search ordering heuristics: killers and
// counter-moves are cleared for each new search (they're ply/previous-
// move relative and stale between searches), history decays instead of
// clearing so long-lived good-quiet-move information survives.
type MoveOrderer struct {
	killers      [MaxPly]board.Move
	counterMoves [12][64]board.Move
	history      [2][64][64]int
}

// NewMoveOrderer returns an empty orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and counter-moves and halves history scores.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i] = board.NoMove
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
	for c := range mo.history {
		for i := range mo.history[c] {
			for j := range mo.history[c][i] {
				mo.history[c][i][j] /= 2
			}
		}
	}
}

// ScoreMoves assigns an ordering score to every move in the list. quiescent
// is false for ordinary (non-quiescence) sub-searches, where killers and
// counter-moves apply; it is true inside quiescence, where only the
// capture/promotion tiers are meaningful.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move, quiescent bool) []int {
	scores := make([]int, moves.Len())
	var counterMove board.Move
	if !quiescent {
		counterMove = mo.GetCounterMove(prevMove, pos)
	}

	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove, counterMove, quiescent)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove, counterMove board.Move, quiescent bool) int {
	if m == ttMove {
		return hashScore
	}

	if m.IsCapture() || m.IsPromotion() {
		var score int
		if m.IsCapture() {
			score += mo.scoreCapture(pos, m)
		}
		if m.IsPromotion() {
			score += promoScore + board.PieceValue[m.PromotionType()]
		}
		return score
	}

	if quiescent {
		return 0
	}

	if m == mo.killers[ply] {
		return killerScore
	}
	if m == counterMove {
		return counterScore
	}
	if m.IsCastle() {
		return castleScore
	}

	us := pos.SideToMove
	return mo.history[us][m.From()][m.To()]
}

func (mo *MoveOrderer) scoreCapture(pos *board.Position, m board.Move) int {
	attacker := pos.PieceAt(m.From()).Type()

	var victim board.PieceType
	if m.IsEnPassant() {
		victim = board.Pawn
	} else {
		victim = pos.PieceAt(m.To()).Type()
	}
	if victim >= board.King || attacker > board.King {
		victim, attacker = board.Pawn, board.Pawn
	}

	base := captureScore + mvvLva[victim][attacker]
	if m.IsEnPassant() || see(pos, m) {
		return base
	}
	return -base
}

// SortMoves orders the move list by descending score via selection sort,
// which is fast enough for the ≤218 legal moves any chess position has.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best-scoring move at or after index and swaps it
// into index, enabling lazy move sorting that stops as soon as a search
// cuts off.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records m as the killer for ply, replacing whatever was
// there; §4.5 calls for exactly one slot, not the classic two.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	mo.killers[ply] = m
}

// UpdateHistory bumps (or penalizes) the history score for a quiet move
// that caused (or failed to cause) a beta cutoff, decaying the whole
// table on saturation per §4.5.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int, isGood bool) {
	bonus := depth * depth
	entry := &mo.history[us][m.From()][m.To()]
	if isGood {
		*entry += bonus
	} else {
		*entry -= bonus
	}

	const saturation = 1 << 14 // i16::MAX/2 equivalent headroom for an int-backed table
	if *entry > saturation || *entry < -saturation {
		for c := range mo.history {
			for i := range mo.history[c] {
				for j := range mo.history[c][i] {
					mo.history[c][i][j] /= 2
				}
			}
		}
	}
}

// UpdateCounterMove records goodMove as the reply to prevMove.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, goodMove board.Move, pos *board.Position) {
	if prevMove == board.NoMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = goodMove
}

// GetCounterMove returns the recorded reply to prevMove, or NoMove.
func (mo *MoveOrderer) GetCounterMove(prevMove board.Move, pos *board.Position) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}
