package nnue

import "github.com/corvidchess/engine/internal/board"

// Evaluator wraps a Network and a per-ply accumulator stack behind the
// incremental contract search drives: Push/Pop mirror Position's own
// history stack one-for-one, and Update consumes whatever move Position
// just applied.
type Evaluator struct {
	net   *Network
	stack *AccumulatorStack
}

// NewEvaluator builds an evaluator. An empty weightsFile falls back to
// reproducible random weights, useful for perft/search-plumbing tests
// that never need real evaluation quality.
func NewEvaluator(weightsFile string) (*Evaluator, error) {
	net := NewNetwork()
	if weightsFile != "" {
		if err := net.LoadWeights(weightsFile); err != nil {
			return nil, err
		}
	} else {
		net.InitRandom(12345)
	}
	return &Evaluator{net: net, stack: NewAccumulatorStack()}, nil
}

// Evaluate returns the centipawn score from the position's side to
// move's perspective, computing the accumulator from scratch the first
// time it is needed at this ply.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	acc := e.stack.Current()
	if !acc.Computed {
		acc.ComputeFull(pos, e.net)
	}
	return e.net.Forward(acc, pos.SideToMove)
}

// Push mirrors Position.Push/PushNull: call after advancing the
// position so the new ply starts from a copy of the current accumulator.
func (e *Evaluator) Push() { e.stack.Push() }

// Pop mirrors Position.Pop/PopNull.
func (e *Evaluator) Pop() { e.stack.Pop() }

// Refresh forces a full recomputation at the current ply, used after
// Reset and any time incremental state is suspect.
func (e *Evaluator) Refresh(pos *board.Position) {
	e.stack.Current().ComputeFull(pos, e.net)
}

// Update applies the incremental delta for the move Position.Push just
// made to pos. Call it after Push (both Position's and the evaluator's)
// have advanced to the new ply. A null move (LastMove() == NoMove)
// leaves the accumulator untouched.
func (e *Evaluator) Update(pos *board.Position) {
	acc := e.stack.Current()
	if !acc.Computed {
		return
	}
	mov := pos.LastMove()
	if mov == board.NoMove {
		return
	}

	captured := pos.LastCaptured()
	from, to := mov.From(), mov.To()
	moved := pos.PieceAt(to)
	us := moved.Color()

	if captured != board.NoPiece {
		capSq := to
		if mov.IsEnPassant() {
			capSq = board.NewSquare(to.File(), from.Rank())
		}
		acc.Deactivate(e.net, captured, capSq)
	}

	if mov.IsPromotion() {
		acc.Deactivate(e.net, board.NewPiece(board.Pawn, us), from)
		acc.Activate(e.net, moved, to)
	} else {
		acc.Move(e.net, moved, from, to)
	}

	if mov.IsCastle() {
		var rookFrom, rookTo board.Square
		if mov.Flag() == board.FlagOO {
			if us == board.White {
				rookFrom, rookTo = board.H1, board.F1
			} else {
				rookFrom, rookTo = board.H8, board.F8
			}
		} else {
			if us == board.White {
				rookFrom, rookTo = board.A1, board.D1
			} else {
				rookFrom, rookTo = board.A8, board.D8
			}
		}
		acc.Move(e.net, board.NewPiece(board.Rook, us), rookFrom, rookTo)
	}
}

// Reset clears the accumulator stack for a new game.
func (e *Evaluator) Reset() { e.stack.Reset() }
