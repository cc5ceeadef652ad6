package nnue

import "github.com/corvidchess/engine/internal/board"

// Network holds the weights for the input layer (one row per feature,
// shared by both perspectives) and one output layer per material bucket.
// Unlike the teacher's HalfKP topology, there is no hidden layer between
// the accumulator and the output: the squared-clipped-ReLU activation is
// applied directly to the accumulator lanes and weighted-summed.
type Network struct {
	InputWeights [NumFeatures][L1Size]int16
	InputBias    [L1Size]int16

	// BucketWeights[b][0] weights the side-to-move's accumulator lanes,
	// BucketWeights[b][1] the opponent's.
	BucketWeights [NumBuckets][2][L1Size]int16
	BucketBias    [NumBuckets]int16
}

// NewNetwork returns a zero-valued network; callers must either load
// weights or call InitRandom before evaluating.
func NewNetwork() *Network { return &Network{} }

// clippedReLU clamps an accumulator lane to [0, InputScale].
func clippedReLU(x int16) int64 {
	v := int64(x)
	if v < 0 {
		return 0
	}
	if v > InputScale {
		return InputScale
	}
	return v
}

// bucketFor selects the output bucket from the piece count on the board
// (kings included), per the eight-way split over [2, 32] pieces.
func bucketFor(pieceCount int) int {
	b := (pieceCount - 2) / BucketDiv
	if b < 0 {
		b = 0
	}
	if b >= NumBuckets {
		b = NumBuckets - 1
	}
	return b
}

// Forward evaluates the accumulator from sideToMove's perspective,
// returning a centipawn score. Each lane's squared-clipped-ReLU output
// channels more signal from confidently-active features than a plain
// clipped ReLU would, at the cost of one extra multiply per lane.
func (n *Network) Forward(acc *Accumulator, sideToMove board.Color) int {
	bucket := bucketFor(acc.PieceCount)

	var stmAcc, nstmAcc *[L1Size]int16
	if sideToMove == board.White {
		stmAcc, nstmAcc = &acc.White, &acc.Black
	} else {
		stmAcc, nstmAcc = &acc.Black, &acc.White
	}

	weights := &n.BucketWeights[bucket]

	var output int64
	for i := 0; i < L1Size; i++ {
		c := clippedReLU(stmAcc[i])
		output += int64(weights[0][i]) * c * c
	}
	for i := 0; i < L1Size; i++ {
		c := clippedReLU(nstmAcc[i])
		output += int64(weights[1][i]) * c * c
	}

	score := int64(n.BucketBias[bucket])*Nnue2Score/HiddenScale +
		(output/InputScale)*Nnue2Score/CombScale
	return int(score)
}

// InitRandom fills the network with small reproducible pseudo-random
// weights, for use when no trained weights file is configured. A simple
// LCG keeps this deterministic across runs without depending on the
// search's own Zobrist PRNG.
func (n *Network) InitRandom(seed uint64) {
	state := seed
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16((state >> 48) & 0xFF) - 128
	}

	for i := 0; i < NumFeatures; i++ {
		for j := 0; j < L1Size; j++ {
			n.InputWeights[i][j] = next() >> 4
		}
	}
	for i := 0; i < L1Size; i++ {
		n.InputBias[i] = next() >> 3
	}
	for b := 0; b < NumBuckets; b++ {
		for side := 0; side < 2; side++ {
			for i := 0; i < L1Size; i++ {
				n.BucketWeights[b][side][i] = next() >> 6
			}
		}
		n.BucketBias[b] = next()
	}
}
