package board

import "fmt"

// Move packs from/to squares and a move-kind flag into 16 bits: from
// (bits 0-5), to (bits 6-11), flag (bits 12-15). The flag set follows
// original_source/src/moov.rs in distinguishing double pushes and each
// promotion/promotion-capture combination explicitly, so push/pop (§4.3)
// never has to re-derive epsq or half_move_counter from board state.
type Move uint16

// Move flags.
const (
	FlagQuiet Move = iota
	FlagDoublePush
	FlagOO
	FlagOOO
	FlagCapture
	FlagEnPassant
	_ // reserved
	_ // reserved
	FlagPromoN
	FlagPromoB
	FlagPromoR
	FlagPromoQ
	FlagPromoCaptureN
	FlagPromoCaptureB
	FlagPromoCaptureR
	FlagPromoCaptureQ
)

// NoMove is the zero value, used as a "no move" sentinel (a1a1 quiet,
// never a legal move since a piece cannot move to its own square).
const NoMove Move = 0

const (
	fromShift = 0
	toShift   = 6
	flagShift = 12
	sixBits   = 0x3F
	flagBits  = 0xF
)

// NewMove builds a move with an explicit flag.
func NewMove(from, to Square, flag Move) Move {
	return Move(from)<<fromShift | Move(to)<<toShift | (flag&flagBits)<<flagShift
}

func (m Move) From() Square { return Square((m >> fromShift) & sixBits) }
func (m Move) To() Square   { return Square((m >> toShift) & sixBits) }
func (m Move) Flag() Move   { return (m >> flagShift) & flagBits }

// IsCapture reports whether the move's flag denotes any capturing move
// (ordinary capture, en passant, or promotion-capture).
func (m Move) IsCapture() bool {
	f := m.Flag()
	return f == FlagCapture || f == FlagEnPassant || f >= FlagPromoCaptureN
}

// IsEnPassant reports the en-passant-capture flag.
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }

// IsDoublePush reports the double-pawn-push flag.
func (m Move) IsDoublePush() bool { return m.Flag() == FlagDoublePush }

// IsCastle reports either castling flag.
func (m Move) IsCastle() bool { f := m.Flag(); return f == FlagOO || f == FlagOOO }

// IsPromotion reports any promotion or promotion-capture flag.
func (m Move) IsPromotion() bool { return m.Flag() >= FlagPromoN }

// PromotionType returns the promoted-to piece type; only meaningful when
// IsPromotion() is true.
func (m Move) PromotionType() PieceType {
	switch m.Flag() {
	case FlagPromoN, FlagPromoCaptureN:
		return Knight
	case FlagPromoB, FlagPromoCaptureB:
		return Bishop
	case FlagPromoR, FlagPromoCaptureR:
		return Rook
	case FlagPromoQ, FlagPromoCaptureQ:
		return Queen
	default:
		return NoPieceType
	}
}

// promoFlag maps a promoted piece type to its non-capturing promotion
// flag; promoCaptureFlag maps to the capturing variant.
func promoFlag(pt PieceType) Move {
	switch pt {
	case Knight:
		return FlagPromoN
	case Bishop:
		return FlagPromoB
	case Rook:
		return FlagPromoR
	default:
		return FlagPromoQ
	}
}

func promoCaptureFlag(pt PieceType) Move {
	switch pt {
	case Knight:
		return FlagPromoCaptureN
	case Bishop:
		return FlagPromoCaptureB
	case Rook:
		return FlagPromoCaptureR
	default:
		return FlagPromoCaptureQ
	}
}

// String renders UCI long algebraic notation, e.g. "e2e4" or "a7a8q".
// Castling is emitted as the king's from/to squares, never "O-O".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(promoChar(m.PromotionType()))
	}
	return s
}

func promoChar(pt PieceType) byte {
	switch pt {
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Rook:
		return 'r'
	default:
		return 'q'
	}
}

// ParseMove parses UCI long algebraic notation against the legal moves
// of pos, returning the matching Move (with its flag set correctly) or an
// error if no legal move matches. Per §7, an unmatched move string is an
// input-parse error, not a programming-contract violation.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, err)
	}
	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		default:
			return NoMove, fmt.Errorf("invalid promotion piece in %q", s)
		}
	}

	var moves MoveList
	pos.GenerateLegalMoves(&moves)
	for i := 0; i < moves.Len(); i++ {
		cand := moves.Get(i)
		if cand.From() != from || cand.To() != to {
			continue
		}
		if cand.IsPromotion() {
			if cand.PromotionType() != promo {
				continue
			}
		} else if promo != NoPieceType {
			continue
		}
		return cand, nil
	}
	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// MoveList is a fixed-capacity move buffer so generation never allocates
// in the hot loop (§5: move lists are fixed-capacity ≥ 252; the widest
// known legal position has 218 legal moves).
type MoveList struct {
	moves [252]Move
	n     int
}

func (l *MoveList) Add(m Move)        { l.moves[l.n] = m; l.n++ }
func (l *MoveList) Len() int          { return l.n }
func (l *MoveList) Get(i int) Move    { return l.moves[i] }
func (l *MoveList) Set(i int, m Move) { l.moves[i] = m }
func (l *MoveList) Swap(i, j int)     { l.moves[i], l.moves[j] = l.moves[j], l.moves[i] }
func (l *MoveList) Clear()            { l.n = 0 }

func (l *MoveList) Contains(m Move) bool {
	for i := 0; i < l.n; i++ {
		if l.moves[i] == m {
			return true
		}
	}
	return false
}

func (l *MoveList) Slice() []Move { return l.moves[:l.n] }
