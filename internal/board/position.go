package board

import "fmt"

// maxHistory bounds the push/pop stack (§5 resource policy: a fixed-size
// ring of at least 1000 plies).
const maxHistory = 1200

// Castling masks: each pairs the king's and the rook's home squares on
// the back rank. A right is intact iff mask & castling_disabled == 0
// (§4.2.1).
var (
	maskWhiteOO  Bitboard = SquareBB(E1) | SquareBB(H1)
	maskWhiteOOO Bitboard = SquareBB(E1) | SquareBB(A1)
	maskBlackOO  Bitboard = SquareBB(E8) | SquareBB(H8)
	maskBlackOOO Bitboard = SquareBB(E8) | SquareBB(A8)

	bandWhiteOOEmpty   Bitboard = SquareBB(F1) | SquareBB(G1)
	bandWhiteOOOEmpty  Bitboard = SquareBB(B1) | SquareBB(C1) | SquareBB(D1)
	bandWhiteOOODanger Bitboard = SquareBB(C1) | SquareBB(D1)
	bandBlackOOEmpty   Bitboard = SquareBB(F8) | SquareBB(G8)
	bandBlackOOOEmpty  Bitboard = SquareBB(B8) | SquareBB(C8) | SquareBB(D8)
	bandBlackOOODanger Bitboard = SquareBB(C8) | SquareBB(D8)
)

// CastlingRights is the FEN-facing {K,Q,k,q} view, derived from
// castling_disabled for display and FEN round-tripping; the engine's
// own legality logic works from castling_disabled directly.
type CastlingRights uint8

const (
	WhiteKingSideCastle CastlingRights = 1 << iota
	WhiteQueenSideCastle
	BlackKingSideCastle
	BlackQueenSideCastle
	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// HistoryEntry is written once at push time and never mutated afterward
// (§3). It carries everything pop() needs to reverse a move without
// re-deriving it from board state.
type HistoryEntry struct {
	CastlingDisabled Bitboard
	Captured         Piece
	EPSq             Square
	Mov              Move
	MaterialHash     uint64
	HalfMoveCounter  int
	PliesFromNull    int
}

// Position is the mutable bitboard chess position. It is mutated only
// through Push/Pop/PushNull/PopNull and full reset via ParseFEN.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard
	board       [64]Piece

	SideToMove Color
	Ply        int

	// Hash is the incremental Zobrist hash: piece keys, XOR side key if
	// Black to move, XOR ep-file key iff an en-passant square exists.
	// Castling rights are never hashed (§3, §9).
	Hash uint64
	// MaterialHash is the placement-only hash (no side-to-move, no ep)
	// used for repetition detection (§3, §4.3).
	MaterialHash uint64

	KingSquare [2]Square
	Checkers   Bitboard

	history [maxHistory]HistoryEntry
	histLen int
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic("board: start FEN must parse: " + err.Error())
	}
	return pos
}

// Copy returns a deep, independent copy of p.
func (p *Position) Copy() *Position {
	np := *p
	return &np
}

func (p *Position) top() *HistoryEntry { return &p.history[p.histLen-1] }

// CastlingDisabled returns the current castling_disabled bitboard.
func (p *Position) CastlingDisabled() Bitboard { return p.top().CastlingDisabled }

// EnPassant returns the en-passant target square, or NoSquare.
func (p *Position) EnPassant() Square { return p.top().EPSq }

// HalfMoveClock returns plies since the last pawn move or capture.
func (p *Position) HalfMoveClock() int { return p.top().HalfMoveCounter }

// PliesFromNull returns plies since the most recent null move.
func (p *Position) PliesFromNull() int { return p.top().PliesFromNull }

// LastMove returns the move that produced the current position, or
// NoMove at the root or immediately after a null move.
func (p *Position) LastMove() Move { return p.top().Mov }

// LastCaptured returns the piece captured by LastMove, or NoPiece.
func (p *Position) LastCaptured() Piece { return p.top().Captured }

// CastlingRightsField derives the FEN {K,Q,k,q} view from castling_disabled.
func (p *Position) CastlingRightsField() CastlingRights {
	disabled := p.CastlingDisabled()
	var cr CastlingRights
	if disabled&maskWhiteOO == 0 {
		cr |= WhiteKingSideCastle
	}
	if disabled&maskWhiteOOO == 0 {
		cr |= WhiteQueenSideCastle
	}
	if disabled&maskBlackOO == 0 {
		cr |= BlackKingSideCastle
	}
	if disabled&maskBlackOOO == 0 {
		cr |= BlackQueenSideCastle
	}
	return cr
}

func (p *Position) PieceAt(sq Square) Piece { return p.board[sq] }

func (p *Position) IsEmpty(sq Square) bool { return p.board[sq] == NoPiece }

func (p *Position) InCheck() bool { return p.Checkers != 0 }

// setPiece places pc on sq in every tracked structure, with no hash
// update — callers that need hash-consistent mutation go through
// placePiece/removePieceAt below.
func (p *Position) setPiece(pc Piece, sq Square) {
	p.board[sq] = pc
	bb := SquareBB(sq)
	p.Pieces[pc.Color()][pc.Type()] |= bb
	p.Occupied[pc.Color()] |= bb
	p.AllOccupied |= bb
}

func (p *Position) clearPiece(sq Square) {
	pc := p.board[sq]
	if pc == NoPiece {
		return
	}
	bb := SquareBB(sq)
	p.Pieces[pc.Color()][pc.Type()] &^= bb
	p.Occupied[pc.Color()] &^= bb
	p.AllOccupied &^= bb
	p.board[sq] = NoPiece
}

func (p *Position) updateOccupied() {
	p.Occupied[White] = 0
	p.Occupied[Black] = 0
	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// placePiece adds pc at sq, updating board state and both hashes.
func (p *Position) placePiece(pc Piece, sq Square) {
	p.setPiece(pc, sq)
	key := ZobristPiece(pc.Color(), pc.Type(), sq)
	p.Hash ^= key
	p.MaterialHash ^= key
	if pc.Type() == King {
		p.KingSquare[pc.Color()] = sq
	}
}

// removePieceAt removes whatever piece sits at sq, updating both hashes.
func (p *Position) removePieceAt(sq Square) Piece {
	pc := p.board[sq]
	if pc == NoPiece {
		return NoPiece
	}
	key := ZobristPiece(pc.Color(), pc.Type(), sq)
	p.clearPiece(sq)
	p.Hash ^= key
	p.MaterialHash ^= key
	return pc
}

func (p *Position) epKeyOrZero(sq Square) uint64 {
	if sq == NoSquare {
		return 0
	}
	return ZobristEnPassant(sq.File())
}

// Push applies mov, pushing a new HistoryEntry. mov must be a move this
// position's own GenerateLegalMoves produced; Push does not re-validate
// legality (§7: the search core trusts well-formed inputs).
func (p *Position) Push(mov Move) {
	if p.histLen >= maxHistory {
		panic("board: history stack exhausted")
	}
	prev := p.top()
	us := p.SideToMove
	from, to := mov.From(), mov.To()
	moving := p.board[from]

	var captured Piece = NoPiece
	switch {
	case mov.IsEnPassant():
		capSq := NewSquare(to.File(), from.Rank())
		captured = p.removePieceAt(capSq)
	case mov.IsCapture():
		captured = p.removePieceAt(to)
	}

	p.removePieceAt(from)

	placed := moving
	if mov.IsPromotion() {
		placed = NewPiece(mov.PromotionType(), us)
	}
	p.placePiece(placed, to)

	if mov.IsCastle() {
		var rookFrom, rookTo Square
		if mov.Flag() == FlagOO {
			if us == White {
				rookFrom, rookTo = H1, F1
			} else {
				rookFrom, rookTo = H8, F8
			}
		} else {
			if us == White {
				rookFrom, rookTo = A1, D1
			} else {
				rookFrom, rookTo = A8, D8
			}
		}
		rook := p.removePieceAt(rookFrom)
		p.placePiece(rook, rookTo)
	}

	var newEP Square = NoSquare
	if mov.IsDoublePush() {
		if us == White {
			newEP = Square(int(from) + 8)
		} else {
			newEP = Square(int(from) - 8)
		}
	}

	// En-passant file key toggles out for the old entry, in for the new.
	p.Hash ^= p.epKeyOrZero(prev.EPSq)
	p.Hash ^= p.epKeyOrZero(newEP)
	p.Hash ^= ZobristSideToMove()

	halfMove := prev.HalfMoveCounter + 1
	if moving.Type() == Pawn || captured != NoPiece {
		halfMove = 0
	}

	p.histLen++
	p.history[p.histLen-1] = HistoryEntry{
		CastlingDisabled: prev.CastlingDisabled | SquareBB(from) | SquareBB(to),
		Captured:         captured,
		EPSq:             newEP,
		Mov:              mov,
		MaterialHash:     p.MaterialHash,
		HalfMoveCounter:  halfMove,
		PliesFromNull:    prev.PliesFromNull + 1,
	}

	p.SideToMove = us.Other()
	p.Ply++
	p.UpdateCheckers()
}

// Pop reverses the most recent Push, reading captured/epsq/mov from the
// popped entry. Calling Pop with no prior Push is a programming-contract
// violation and panics (§7).
func (p *Position) Pop() {
	if p.histLen <= 1 {
		panic("board: pop with empty history")
	}
	cur := p.top()
	mov := cur.Mov
	us := p.SideToMove.Other() // side that made the move being undone
	from, to := mov.From(), mov.To()

	p.SideToMove = us
	p.Ply--

	moved := p.removePieceAt(to)
	restored := moved
	if mov.IsPromotion() {
		restored = NewPiece(Pawn, us)
	}
	p.placePiece(restored, from)

	if mov.IsCastle() {
		var rookFrom, rookTo Square
		if mov.Flag() == FlagOO {
			if us == White {
				rookFrom, rookTo = H1, F1
			} else {
				rookFrom, rookTo = H8, F8
			}
		} else {
			if us == White {
				rookFrom, rookTo = A1, D1
			} else {
				rookFrom, rookTo = A8, D8
			}
		}
		rook := p.removePieceAt(rookTo)
		p.placePiece(rook, rookFrom)
	}

	if cur.Captured != NoPiece {
		if mov.IsEnPassant() {
			capSq := NewSquare(to.File(), from.Rank())
			p.placePiece(cur.Captured, capSq)
		} else {
			p.placePiece(cur.Captured, to)
		}
	}

	prev := &p.history[p.histLen-2]
	p.Hash ^= p.epKeyOrZero(cur.EPSq)
	p.Hash ^= p.epKeyOrZero(prev.EPSq)
	p.Hash ^= ZobristSideToMove()

	p.history[p.histLen-1] = HistoryEntry{}
	p.histLen--
	p.UpdateCheckers()
}

// PushNull plays a null move: side to move flips, no piece moves, the
// en-passant square (if any) is cleared, and plies_from_null resets.
func (p *Position) PushNull() {
	if p.histLen >= maxHistory {
		panic("board: history stack exhausted")
	}
	prev := p.top()
	p.Hash ^= p.epKeyOrZero(prev.EPSq)
	p.Hash ^= ZobristSideToMove()

	p.histLen++
	p.history[p.histLen-1] = HistoryEntry{
		CastlingDisabled: prev.CastlingDisabled,
		Captured:         NoPiece,
		EPSq:             NoSquare,
		Mov:              NoMove,
		MaterialHash:     p.MaterialHash,
		HalfMoveCounter:  prev.HalfMoveCounter + 1,
		PliesFromNull:    0,
	}
	p.SideToMove = p.SideToMove.Other()
	p.Ply++
	p.UpdateCheckers()
}

// PopNull reverses PushNull.
func (p *Position) PopNull() {
	if p.histLen <= 1 {
		panic("board: pop_null with empty history")
	}
	cur := p.top()
	prev := &p.history[p.histLen-2]
	p.Hash ^= p.epKeyOrZero(cur.EPSq)
	p.Hash ^= p.epKeyOrZero(prev.EPSq)
	p.Hash ^= ZobristSideToMove()
	p.history[p.histLen-1] = HistoryEntry{}
	p.histLen--
	p.SideToMove = p.SideToMove.Other()
	p.Ply--
	p.UpdateCheckers()
}

// UpdateCheckers recomputes the Checkers bitboard for the side to move,
// using the real king position (unlike the danger set computed during
// move generation, which deliberately excludes the king — see movegen.go).
func (p *Position) UpdateCheckers() {
	us := p.SideToMove
	kingBB := p.Pieces[us][King]
	if kingBB == 0 {
		p.Checkers = 0
		return
	}
	p.Checkers = p.attackersTo(kingBB.LSB(), us.Other(), p.AllOccupied)
}

// attackersTo returns the pieces of colour by attacking sq, given occ.
func (p *Position) attackersTo(sq Square, by Color, occ Bitboard) Bitboard {
	return (PawnAttacks(sq, by.Other()) & p.Pieces[by][Pawn]) |
		(KnightAttacks(sq) & p.Pieces[by][Knight]) |
		(KingAttacks(sq) & p.Pieces[by][King]) |
		(BishopAttacks(sq, occ) & (p.Pieces[by][Bishop] | p.Pieces[by][Queen])) |
		(RookAttacks(sq, occ) & (p.Pieces[by][Rook] | p.Pieces[by][Queen]))
}

// IsSquareAttacked reports whether byColor attacks sq under the current
// full occupancy, with every piece (the king included) on its square.
// Castling legality does not use it; genCastling checks its path with
// the king removed from the occupancy.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.attackersTo(sq, byColor, p.AllOccupied) != 0
}

// Material returns White material minus Black material in centipawns,
// from the classical PieceValue table.
func (p *Position) Material() int {
	var total int
	for pt := Pawn; pt <= Queen; pt++ {
		total += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		total -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return total
}

// pieceCount is the total number of pieces of both colours (kings
// included), used for NNUE bucket selection and insufficient-material
// detection.
func (p *Position) pieceCount() int { return p.AllOccupied.PopCount() }

// IsInsufficientMaterial reports K-vs-K or K+minor-vs-K (§4.3).
func (p *Position) IsInsufficientMaterial() bool {
	total := p.pieceCount()
	if total == 2 {
		return true
	}
	if total != 3 {
		return false
	}
	noHeavy := (p.Pieces[White][Rook] | p.Pieces[Black][Rook] |
		p.Pieces[White][Queen] | p.Pieces[Black][Queen] |
		p.Pieces[White][Pawn] | p.Pieces[Black][Pawn]) == 0
	return noHeavy
}

// IsFiftyMoveDraw reports the 50-move rule (§4.3).
func (p *Position) IsFiftyMoveDraw() bool { return p.HalfMoveClock() >= 100 }

// IsRepetition implements §4.3's repetition rule, resolved per the
// "one prior occurrence triggers draw" Open Question: scan the last
// min(plies_from_null, half_move_counter) entries, stepping back by 2,
// comparing material_hash; a single match is sufficient.
func (p *Position) IsRepetition() bool {
	lookback := p.PliesFromNull()
	if hmc := p.HalfMoveClock(); hmc < lookback {
		lookback = hmc
	}
	cur := p.MaterialHash
	idx := p.histLen - 1 - 2
	for i := 2; i <= lookback; i += 2 {
		if idx < 0 {
			break
		}
		if p.history[idx].MaterialHash == cur {
			return true
		}
		idx -= 2
	}
	return false
}

// IsDraw reports any automatic draw condition relevant inside the search
// tree.
func (p *Position) IsDraw() bool {
	return p.IsFiftyMoveDraw() || p.IsInsufficientMaterial() || p.IsRepetition()
}

func (p *Position) String() string {
	s := ""
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d ", rank+1)
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				s += ". "
			} else {
				s += pc.String() + " "
			}
		}
		s += "\n"
	}
	s += "  a b c d e f g h\n"
	return s
}
