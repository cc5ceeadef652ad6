package nnue

import "github.com/corvidchess/engine/internal/board"

// Accumulator holds both perspectives' hidden-layer pre-activations,
// maintained incrementally as pieces are placed, removed, or moved.
type Accumulator struct {
	White      [L1Size]int16
	Black      [L1Size]int16
	PieceCount int
	Computed   bool
}

// Reset reinitializes both perspectives to the input bias with no pieces
// placed.
func (a *Accumulator) Reset(net *Network) {
	a.White = net.InputBias
	a.Black = net.InputBias
	a.PieceCount = 0
}

// Activate adds pc's feature row to both perspectives.
func (a *Accumulator) Activate(net *Network, pc board.Piece, sq board.Square) {
	wIdx := FeatureIndex(board.White, pc, sq)
	bIdx := FeatureIndex(board.Black, pc, sq)
	for i := 0; i < L1Size; i++ {
		a.White[i] += net.InputWeights[wIdx][i]
		a.Black[i] += net.InputWeights[bIdx][i]
	}
	a.PieceCount++
}

// Deactivate subtracts pc's feature row from both perspectives.
func (a *Accumulator) Deactivate(net *Network, pc board.Piece, sq board.Square) {
	wIdx := FeatureIndex(board.White, pc, sq)
	bIdx := FeatureIndex(board.Black, pc, sq)
	for i := 0; i < L1Size; i++ {
		a.White[i] -= net.InputWeights[wIdx][i]
		a.Black[i] -= net.InputWeights[bIdx][i]
	}
	a.PieceCount--
}

// Move shifts pc's feature row from one square to another without
// touching PieceCount. It reads the same four weight rows as a
// Deactivate/Activate pair but updates both perspectives in one pass.
func (a *Accumulator) Move(net *Network, pc board.Piece, from, to board.Square) {
	wFrom, wTo := FeatureIndex(board.White, pc, from), FeatureIndex(board.White, pc, to)
	bFrom, bTo := FeatureIndex(board.Black, pc, from), FeatureIndex(board.Black, pc, to)
	for i := 0; i < L1Size; i++ {
		a.White[i] += net.InputWeights[wTo][i] - net.InputWeights[wFrom][i]
		a.Black[i] += net.InputWeights[bTo][i] - net.InputWeights[bFrom][i]
	}
}

// ComputeFull rebuilds the accumulator from scratch by activating every
// piece on the board, the fallback path used at the root of a search and
// whenever incremental state is unavailable.
func (a *Accumulator) ComputeFull(pos *board.Position, net *Network) {
	a.Reset(net)
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			pc := board.NewPiece(pt, c)
			for bb != 0 {
				sq := bb.PopLSB()
				a.Activate(net, pc, sq)
			}
		}
	}
	a.Computed = true
}

// AccumulatorStack mirrors the search stack's ply depth so every node can
// push a cheap copy before making a move and restore it verbatim on
// unmake, without recomputing from scratch.
type AccumulatorStack struct {
	stack [256]Accumulator
	top   int
}

// NewAccumulatorStack returns an empty stack at ply 0.
func NewAccumulatorStack() *AccumulatorStack {
	return &AccumulatorStack{}
}

// Push duplicates the current accumulator onto the next ply.
func (s *AccumulatorStack) Push() {
	if s.top < len(s.stack)-1 {
		s.stack[s.top+1] = s.stack[s.top]
		s.top++
	}
}

// Pop discards the current ply's accumulator, restoring the previous one
// unchanged.
func (s *AccumulatorStack) Pop() {
	if s.top > 0 {
		s.top--
	}
}

// Current returns the accumulator for the current ply.
func (s *AccumulatorStack) Current() *Accumulator {
	return &s.stack[s.top]
}

// Reset returns the stack to ply 0 with an uncomputed accumulator.
func (s *AccumulatorStack) Reset() {
	s.top = 0
	s.stack[0] = Accumulator{}
}
