// Package nnue implements an incrementally updated two-perspective
// network evaluator: a flat 12x64 feature set (no king bucketing), a
// single linear layer per perspective, and a squared-clipped-ReLU output
// stage selected by one of eight material-count buckets.
package nnue

import "github.com/corvidchess/engine/internal/board"

// Network architecture constants.
const (
	NumPieces   = 12 // all six piece types, both colours
	NumSquares  = 64
	NumFeatures = NumPieces * NumSquares // 768

	L1Size     = 512
	NumBuckets = 8
	BucketDiv  = (32 + NumBuckets - 1) / NumBuckets // 4 pieces per bucket

	InputScale  = 255
	HiddenScale = 64
	CombScale   = HiddenScale * InputScale
	Nnue2Score  = 400
)

// relativePiece returns pc as seen from perspective: unchanged for White,
// colour-flipped for Black, so each perspective always sees "my piece"
// and "their piece" through the same half of the feature space.
func relativePiece(perspective board.Color, pc board.Piece) board.Piece {
	if perspective == board.White {
		return pc
	}
	return board.NewPiece(pc.Type(), pc.Color().Other())
}

// relativeSquare mirrors sq vertically for Black's perspective, so both
// perspectives see their own back rank as rank 1.
func relativeSquare(perspective board.Color, sq board.Square) board.Square {
	if perspective == board.White {
		return sq
	}
	return sq.Mirror()
}

// FeatureIndex computes the input-layer row for piece pc on sq, as seen
// from perspective.
func FeatureIndex(perspective board.Color, pc board.Piece, sq board.Square) int {
	rpc := relativePiece(perspective, pc)
	rsq := relativeSquare(perspective, sq)
	return int(rpc)*NumSquares + int(rsq)
}
