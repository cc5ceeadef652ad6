package board

// Single-pass legal move generation. Rather than generate pseudo-legal
// moves and filter with make/unmake, one pass computes the checking
// pieces, the squares a blocking or capturing move must land on, and the
// pinned pieces, then every piece's attack bitboard is masked down to
// legal destinations directly.

// GenerateLegalMoves appends every legal move in the position to list.
func (p *Position) GenerateLegalMoves(list *MoveList) {
	p.generateMoves(list, true)
}

// GenerateCaptures appends the tactical subset used by quiescence search:
// captures, en passant, and queen promotions (push or capture). Castling
// and non-queen promotions are omitted since they are never worth
// searching at quiescence depth.
func (p *Position) GenerateCaptures(list *MoveList) {
	p.generateMoves(list, false)
}

func (p *Position) quietOrCapture(from, to Square) Move {
	if p.board[to] != NoPiece {
		return NewMove(from, to, FlagCapture)
	}
	return NewMove(from, to, FlagQuiet)
}

func (p *Position) generateMoves(list *MoveList, includeQuiets bool) {
	us := p.SideToMove
	them := us.Other()
	kingSq := p.KingSquare[us]
	occ := p.AllOccupied
	ownOcc := p.Occupied[us]
	enemyOcc := p.Occupied[them]

	p.genKingMoves(list, us, them, kingSq, ownOcc, enemyOcc, includeQuiets)

	if p.Checkers.PopCount() >= 2 {
		// Double check: only the king can move.
		return
	}

	captureMask, quietMask := p.checkMasks(kingSq)

	pinned, pinRay := p.computePins(us, kingSq)

	knights := p.Pieces[us][Knight] &^ pinned
	for knights != 0 {
		from := knights.PopLSB()
		targets := KnightAttacks(from) &^ ownOcc & (captureMask | quietMask)
		if !includeQuiets {
			targets &= enemyOcc
		}
		for targets != 0 {
			to := targets.PopLSB()
			list.Add(p.quietOrCapture(from, to))
		}
	}

	p.genSliderMoves(list, Bishop, us, occ, ownOcc, enemyOcc, pinned, pinRay, captureMask, quietMask, includeQuiets)
	p.genSliderMoves(list, Rook, us, occ, ownOcc, enemyOcc, pinned, pinRay, captureMask, quietMask, includeQuiets)
	p.genSliderMoves(list, Queen, us, occ, ownOcc, enemyOcc, pinned, pinRay, captureMask, quietMask, includeQuiets)

	p.genPawnMoves(list, us, occ, enemyOcc, pinned, pinRay, kingSq, captureMask, quietMask, includeQuiets)

	if includeQuiets {
		p.genCastling(list, us, them)
	}
}

// checkMasks returns the squares a non-king move must land on to resolve
// the current check (or, if not in check, unrestricted masks). Per
// §4.2: capturing the lone checker is always legal; blocking is legal
// only when the checker is a slider, restricted to the squares strictly
// between it and the king.
func (p *Position) checkMasks(kingSq Square) (captureMask, quietMask Bitboard) {
	if p.Checkers == 0 {
		return ^Bitboard(0), ^Bitboard(0)
	}
	checkerSq := p.Checkers.LSB()
	captureMask = p.Checkers
	if isSlider(p.board[checkerSq].Type()) {
		quietMask = Between(kingSq, checkerSq)
	}
	return captureMask, quietMask
}

func isSlider(pt PieceType) bool {
	return pt == Bishop || pt == Rook || pt == Queen
}

// computePins finds every piece of the side to move pinned against its
// own king, and the line each may still move along. A pinner is any
// enemy slider whose empty-board attack from the king's square hits it;
// if exactly one piece (ours) sits between them, that piece is pinned.
func (p *Position) computePins(us Color, kingSq Square) (pinned Bitboard, pinRay [64]Bitboard) {
	them := us.Other()
	theirRQ := p.Pieces[them][Rook] | p.Pieces[them][Queen]
	theirBQ := p.Pieces[them][Bishop] | p.Pieces[them][Queen]

	candidates := (RookAttacks(kingSq, 0) & theirRQ) | (BishopAttacks(kingSq, 0) & theirBQ)
	for candidates != 0 {
		pinnerSq := candidates.PopLSB()
		between := Between(kingSq, pinnerSq)
		blockers := between & p.AllOccupied
		if blockers.PopCount() != 1 {
			continue
		}
		if blockers&p.Occupied[us] == 0 {
			continue
		}
		pinnedSq := blockers.LSB()
		pinned |= SquareBB(pinnedSq)
		pinRay[pinnedSq] = Line(kingSq, pinnerSq)
	}
	return pinned, pinRay
}

func (p *Position) genKingMoves(list *MoveList, us, them Color, kingSq Square, ownOcc, enemyOcc Bitboard, includeQuiets bool) {
	targets := KingAttacks(kingSq) &^ ownOcc
	if !includeQuiets {
		targets &= enemyOcc
	}
	occNoKing := p.AllOccupied &^ SquareBB(kingSq)
	for targets != 0 {
		to := targets.PopLSB()
		if p.attackersTo(to, them, occNoKing) != 0 {
			continue
		}
		list.Add(p.quietOrCapture(kingSq, to))
	}
}

func (p *Position) genSliderMoves(list *MoveList, pt PieceType, us Color, occ, ownOcc, enemyOcc, pinned Bitboard, pinRay [64]Bitboard, captureMask, quietMask Bitboard, includeQuiets bool) {
	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks Bitboard
		switch pt {
		case Bishop:
			attacks = BishopAttacks(from, occ)
		case Rook:
			attacks = RookAttacks(from, occ)
		default:
			attacks = QueenAttacks(from, occ)
		}
		attacks &^= ownOcc
		attacks &= captureMask | quietMask
		if pinned&SquareBB(from) != 0 {
			attacks &= pinRay[from]
		}
		if !includeQuiets {
			attacks &= enemyOcc
		}
		for attacks != 0 {
			to := attacks.PopLSB()
			list.Add(p.quietOrCapture(from, to))
		}
	}
}

func (p *Position) genPawnMoves(list *MoveList, us Color, occ, enemyOcc, pinned Bitboard, pinRay [64]Bitboard, kingSq Square, captureMask, quietMask Bitboard, includeQuiets bool) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occ

	var push1, push2, attackL, attackR Bitboard
	var promoRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemyOcc
		attackR = pawns.NorthEast() & enemyOcc
		promoRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemyOcc
		attackR = pawns.SouthEast() & enemyOcc
		promoRank = Rank1
		pushDir = -8
	}

	notPinOK := func(from, to Square) bool {
		return pinned&SquareBB(from) != 0 && pinRay[from]&SquareBB(to) == 0
	}

	if includeQuiets {
		nonPromoPush := push1 &^ promoRank & quietMask
		for nonPromoPush != 0 {
			to := nonPromoPush.PopLSB()
			from := Square(int(to) - pushDir)
			if notPinOK(from, to) {
				continue
			}
			list.Add(NewMove(from, to, FlagQuiet))
		}

		doublePush := push2 & quietMask
		for doublePush != 0 {
			to := doublePush.PopLSB()
			from := Square(int(to) - 2*pushDir)
			if notPinOK(from, to) {
				continue
			}
			list.Add(NewMove(from, to, FlagDoublePush))
		}
	}

	promoPush := push1 & promoRank & quietMask
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := Square(int(to) - pushDir)
		if notPinOK(from, to) {
			continue
		}
		addPromotions(list, from, to, includeQuiets)
	}

	nonPromoL := attackL &^ promoRank & captureMask
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		if notPinOK(from, to) {
			continue
		}
		list.Add(NewMove(from, to, FlagCapture))
	}

	nonPromoR := attackR &^ promoRank & captureMask
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		if notPinOK(from, to) {
			continue
		}
		list.Add(NewMove(from, to, FlagCapture))
	}

	promoL := attackL & promoRank & captureMask
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		if notPinOK(from, to) {
			continue
		}
		addPromotionCaptures(list, from, to, includeQuiets)
	}

	promoR := attackR & promoRank & captureMask
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		if notPinOK(from, to) {
			continue
		}
		addPromotionCaptures(list, from, to, includeQuiets)
	}

	p.genEnPassant(list, us, pawns, pinned, pinRay, kingSq)
}

// genEnPassant handles the capture separately from the ordinary pawn
// attack bitboards: its legality depends on whether it removes the
// checking pawn (not the destination square) and on a rank-wise
// discovered check that the pin detector above cannot see, since it
// removes two pawns from the same rank at once (§4.2).
func (p *Position) genEnPassant(list *MoveList, us Color, pawns, pinned Bitboard, pinRay [64]Bitboard, kingSq Square) {
	ep := p.EnPassant()
	if ep == NoSquare {
		return
	}
	epBB := SquareBB(ep)
	var attackers Bitboard
	if us == White {
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
	} else {
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
	}

	checkerCount := p.Checkers.PopCount()
	for attackers != 0 {
		from := attackers.PopLSB()
		capturedSq := NewSquare(ep.File(), from.Rank())
		if checkerCount == 1 && p.Checkers&SquareBB(capturedSq) == 0 {
			continue
		}
		if pinned&SquareBB(from) != 0 && pinRay[from]&SquareBB(ep) == 0 {
			continue
		}
		if p.epExposesCheck(from, capturedSq, us, kingSq) {
			continue
		}
		list.Add(NewMove(from, ep, FlagEnPassant))
	}
}

func (p *Position) epExposesCheck(from, capturedSq Square, us Color, kingSq Square) bool {
	if kingSq.Rank() != from.Rank() {
		return false
	}
	them := us.Other()
	occ := p.AllOccupied &^ SquareBB(from) &^ SquareBB(capturedSq)
	rankMask := RankMask[kingSq.Rank()]
	attackers := slidingAttacks(kingSq, occ, rankMask) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	return attackers != 0
}

func addPromotions(list *MoveList, from, to Square, includeUnder bool) {
	if includeUnder {
		list.Add(NewMove(from, to, promoFlag(Knight)))
		list.Add(NewMove(from, to, promoFlag(Bishop)))
		list.Add(NewMove(from, to, promoFlag(Rook)))
	}
	list.Add(NewMove(from, to, promoFlag(Queen)))
}

func addPromotionCaptures(list *MoveList, from, to Square, includeUnder bool) {
	if includeUnder {
		list.Add(NewMove(from, to, promoCaptureFlag(Knight)))
		list.Add(NewMove(from, to, promoCaptureFlag(Bishop)))
		list.Add(NewMove(from, to, promoCaptureFlag(Rook)))
	}
	list.Add(NewMove(from, to, promoCaptureFlag(Queen)))
}

// genCastling appends legal castling moves. Per §4.2.1 the squares
// between king and rook must be empty, and the king's own path
// (excluding the rook-adjacent knight-escape square on the queenside)
// must be free of enemy attack. The rook's destination square (F1/F8 or
// D1/D8) lies on that path and is checked with it.
func (p *Position) genCastling(list *MoveList, us, them Color) {
	disabled := p.CastlingDisabled()
	switch us {
	case White:
		if disabled&maskWhiteOO == 0 && p.AllOccupied&bandWhiteOOEmpty == 0 {
			if !p.anyAttackedWithKingRemoved(SquareBB(E1)|bandWhiteOOEmpty, us) {
				list.Add(NewMove(E1, G1, FlagOO))
			}
		}
		if disabled&maskWhiteOOO == 0 && p.AllOccupied&bandWhiteOOOEmpty == 0 {
			if !p.anyAttackedWithKingRemoved(SquareBB(E1)|bandWhiteOOODanger, us) {
				list.Add(NewMove(E1, C1, FlagOOO))
			}
		}
	case Black:
		if disabled&maskBlackOO == 0 && p.AllOccupied&bandBlackOOEmpty == 0 {
			if !p.anyAttackedWithKingRemoved(SquareBB(E8)|bandBlackOOEmpty, us) {
				list.Add(NewMove(E8, G8, FlagOO))
			}
		}
		if disabled&maskBlackOOO == 0 && p.AllOccupied&bandBlackOOOEmpty == 0 {
			if !p.anyAttackedWithKingRemoved(SquareBB(E8)|bandBlackOOODanger, us) {
				list.Add(NewMove(E8, C8, FlagOOO))
			}
		}
	}
}

func (p *Position) attackedWithKingRemoved(sq Square, us Color) bool {
	them := us.Other()
	kingSq := p.KingSquare[us]
	occ := p.AllOccupied &^ SquareBB(kingSq)
	return p.attackersTo(sq, them, occ) != 0
}

func (p *Position) anyAttackedWithKingRemoved(squares Bitboard, us Color) bool {
	for squares != 0 {
		sq := squares.PopLSB()
		if p.attackedWithKingRemoved(sq, us) {
			return true
		}
	}
	return false
}

// HasLegalMoves reports whether the side to move has at least one legal
// move. It generates the full legal move list and checks its length.
func (p *Position) HasLegalMoves() bool {
	var list MoveList
	p.GenerateLegalMoves(&list)
	return list.Len() > 0
}

// IsCheckmate reports checkmate: in check with no legal moves.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports stalemate: not in check, no legal moves.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}
