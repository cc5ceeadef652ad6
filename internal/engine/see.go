package engine

import "github.com/corvidchess/engine/internal/board"

// seeValue holds the piece values the static exchange evaluator swaps
// with, distinct from board.PieceValue: §4.5 fixes these exact numbers
// for SEE regardless of whatever the evaluation function uses for
// material.
var seeValue = [6]int{100, 375, 375, 500, 1025, 10000}

// see resolves the static exchange on a move's destination square and
// reports whether the capture sequence is non-losing for the side
// making the move. Moved grounded on FrankyGo's internal/search/see.go
// swap-list algorithm: repeatedly pick the least valuable attacker of
// each side in turn, updating a running negamax-style gain and
// uncovering x-rayed sliders as each attacker is removed.
func see(pos *board.Position, m board.Move) bool {
	from := m.From()
	to := m.To()
	us := pos.PieceAt(from).Color()

	var gain [32]int
	ply := 0

	victim := pos.PieceAt(to)
	if victim == board.NoPiece {
		gain[0] = 0
	} else {
		gain[0] = seeValue[victim.Type()]
	}

	movedPiece := pos.PieceAt(from)
	occ := pos.AllOccupied
	attackers := attackersTo(pos, to, occ)

	occ = occ.Clear(from)
	attackers = attackers.Clear(from)
	attackers |= revealedSliders(pos, to, occ)

	side := us.Other()
	for {
		ply++
		gain[ply] = seeValue[movedPiece.Type()] - gain[ply-1]
		if max(-gain[ply-1], gain[ply]) < 0 {
			break
		}

		next := leastValuableAttacker(pos, attackers, side)
		if next == board.NoSquare {
			break
		}

		movedPiece = pos.PieceAt(next)
		occ = occ.Clear(next)
		attackers = attackers.Clear(next)
		attackers |= revealedSliders(pos, to, occ)
		side = side.Other()
	}

	for ply--; ply > 0; ply-- {
		gain[ply-1] = -max(-gain[ply-1], gain[ply])
	}
	return gain[0] >= 0
}

// attackersTo returns every piece of either colour attacking sq given
// occ as the occupancy (so callers can probe hypothetical occupancies
// mid-swap).
func attackersTo(pos *board.Position, sq board.Square, occ board.Bitboard) board.Bitboard {
	var attackers board.Bitboard
	for c := board.White; c <= board.Black; c++ {
		attackers |= board.PawnAttacks(sq, c.Other()) & pos.Pieces[c][board.Pawn]
		attackers |= board.KnightAttacks(sq) & pos.Pieces[c][board.Knight]
		attackers |= board.KingAttacks(sq) & pos.Pieces[c][board.King]
		attackers |= board.RookAttacks(sq, occ) & (pos.Pieces[c][board.Rook] | pos.Pieces[c][board.Queen])
		attackers |= board.BishopAttacks(sq, occ) & (pos.Pieces[c][board.Bishop] | pos.Pieces[c][board.Queen])
	}
	return attackers
}

// revealedSliders returns sliding attacks to sq newly uncovered by
// removing a piece from occ; only sliders can be x-rayed.
func revealedSliders(pos *board.Position, sq board.Square, occ board.Bitboard) board.Bitboard {
	var attackers board.Bitboard
	for c := board.White; c <= board.Black; c++ {
		attackers |= board.RookAttacks(sq, occ) & (pos.Pieces[c][board.Rook] | pos.Pieces[c][board.Queen]) & occ
		attackers |= board.BishopAttacks(sq, occ) & (pos.Pieces[c][board.Bishop] | pos.Pieces[c][board.Queen]) & occ
	}
	return attackers
}

// leastValuableAttacker picks side's cheapest remaining attacker from
// the candidate set, lowest piece value first.
func leastValuableAttacker(pos *board.Position, candidates board.Bitboard, side board.Color) board.Square {
	for pt := board.Pawn; pt <= board.King; pt++ {
		bb := candidates & pos.Pieces[side][pt]
		if bb != 0 {
			return bb.LSB()
		}
	}
	return board.NoSquare
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
