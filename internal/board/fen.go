package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a Position. The root position
// has no predecessor move, so history[0] is synthesized directly from the
// FEN's castling/en-passant/half-move fields rather than via Push.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	pos := &Position{histLen: 1}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare
	for sq := range pos.board {
		pos.board[sq] = NoPiece
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	disabled, err := parseCastling(parts[2])
	if err != nil {
		return nil, err
	}

	epsq := NoSquare
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		epsq = sq
	}

	halfMove := 0
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
		halfMove = hmc
	}

	fullMove := 1
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		fullMove = fmn
	}

	pos.updateOccupied()
	pos.findKings()
	if pos.KingSquare[White] == NoSquare || pos.KingSquare[Black] == NoSquare {
		return nil, fmt.Errorf("invalid FEN: missing king")
	}

	pos.MaterialHash = computeMaterialHashFromScratch(pos)
	pos.Hash = pos.MaterialHash
	if pos.SideToMove == Black {
		pos.Hash ^= ZobristSideToMove()
	}
	if epsq != NoSquare {
		pos.Hash ^= ZobristEnPassant(epsq.File())
	}

	pos.Ply = (fullMove - 1) * 2
	if pos.SideToMove == Black {
		pos.Ply++
	}

	pos.history[0] = HistoryEntry{
		CastlingDisabled: disabled,
		Captured:         NoPiece,
		EPSq:             epsq,
		Mov:              NoMove,
		MaterialHash:     pos.MaterialHash,
		HalfMoveCounter:  halfMove,
		PliesFromNull:    0,
	}

	pos.UpdateCheckers()

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
			} else {
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				sq := NewSquare(file, rank)
				pos.setPiece(piece, sq)
				file++
			}
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

// parseCastling returns the castling_disabled bitboard implied by a FEN
// castling field: a letter absent from the field disables the
// corresponding mask (§4.2.1).
func parseCastling(castling string) (Bitboard, error) {
	if castling == "-" {
		return maskWhiteOO | maskWhiteOOO | maskBlackOO | maskBlackOOO, nil
	}

	var present CastlingRights
	for _, c := range castling {
		switch c {
		case 'K':
			present |= WhiteKingSideCastle
		case 'Q':
			present |= WhiteQueenSideCastle
		case 'k':
			present |= BlackKingSideCastle
		case 'q':
			present |= BlackQueenSideCastle
		default:
			return 0, fmt.Errorf("invalid castling character: %c", c)
		}
	}

	var disabled Bitboard
	if present&WhiteKingSideCastle == 0 {
		disabled |= maskWhiteOO
	}
	if present&WhiteQueenSideCastle == 0 {
		disabled |= maskWhiteOOO
	}
	if present&BlackKingSideCastle == 0 {
		disabled |= maskBlackOO
	}
	if present&BlackQueenSideCastle == 0 {
		disabled |= maskBlackOOO
	}
	return disabled, nil
}

// ToFEN returns the FEN representation of the position. The full-move
// number is derived from Ply rather than stored, since it is a pure
// function of ply count and side to move.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				empty++
			} else {
				if empty > 0 {
					sb.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				sb.WriteString(piece.String())
			}
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRightsField().String())

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant().String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock()))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.Ply/2 + 1))

	return sb.String()
}

// computeMaterialHashFromScratch hashes piece placement only, with no
// side-to-move or en-passant component (§3, used for both MaterialHash
// and as the placement component of the full Hash).
func computeMaterialHashFromScratch(p *Position) uint64 {
	var hash uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				hash ^= ZobristPiece(c, pt, sq)
			}
		}
	}
	return hash
}
