package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Weight file format constants. No trained weights are embedded in this
// repository: NewEvaluator with an empty path fills the network from
// InitRandom, and this loader reads a weight file when a path is given.
const (
	MagicNumber = 0x44495643 // "CVID"
	Version     = 1
)

// FileHeader is the fixed-size header preceding the weight arrays.
type FileHeader struct {
	Magic      uint32
	Version    uint32
	NumFeature uint32
	L1Size     uint32
	NumBuckets uint32
}

// LoadWeights reads a weights file produced by SaveWeights.
func (n *Network) LoadWeights(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("nnue: open weights file: %w", err)
	}
	defer f.Close()
	return n.LoadWeightsFromReader(f)
}

// LoadWeightsFromReader reads weights from an arbitrary stream, used by
// both LoadWeights and tests that embed a blob in memory.
func (n *Network) LoadWeightsFromReader(r io.Reader) error {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("nnue: read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return fmt.Errorf("nnue: bad magic: expected %x, got %x", MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return fmt.Errorf("nnue: unsupported version %d", header.Version)
	}
	if header.NumFeature != NumFeatures || header.L1Size != L1Size || header.NumBuckets != NumBuckets {
		return fmt.Errorf("nnue: dimension mismatch: file has (%d,%d,%d), want (%d,%d,%d)",
			header.NumFeature, header.L1Size, header.NumBuckets, NumFeatures, L1Size, NumBuckets)
	}

	for i := 0; i < NumFeatures; i++ {
		if err := binary.Read(r, binary.LittleEndian, &n.InputWeights[i]); err != nil {
			return fmt.Errorf("nnue: read input weights at %d: %w", i, err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &n.InputBias); err != nil {
		return fmt.Errorf("nnue: read input bias: %w", err)
	}
	for b := 0; b < NumBuckets; b++ {
		if err := binary.Read(r, binary.LittleEndian, &n.BucketWeights[b]); err != nil {
			return fmt.Errorf("nnue: read bucket weights at %d: %w", b, err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &n.BucketBias); err != nil {
		return fmt.Errorf("nnue: read bucket bias: %w", err)
	}
	return nil
}

// SaveWeights writes the network to filename in LoadWeights' format.
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("nnue: create weights file: %w", err)
	}
	defer f.Close()

	header := FileHeader{
		Magic:      MagicNumber,
		Version:    Version,
		NumFeature: NumFeatures,
		L1Size:     L1Size,
		NumBuckets: NumBuckets,
	}
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("nnue: write header: %w", err)
	}
	for i := 0; i < NumFeatures; i++ {
		if err := binary.Write(f, binary.LittleEndian, &n.InputWeights[i]); err != nil {
			return fmt.Errorf("nnue: write input weights at %d: %w", i, err)
		}
	}
	if err := binary.Write(f, binary.LittleEndian, &n.InputBias); err != nil {
		return fmt.Errorf("nnue: write input bias: %w", err)
	}
	for b := 0; b < NumBuckets; b++ {
		if err := binary.Write(f, binary.LittleEndian, &n.BucketWeights[b]); err != nil {
			return fmt.Errorf("nnue: write bucket weights at %d: %w", b, err)
		}
	}
	if err := binary.Write(f, binary.LittleEndian, &n.BucketBias); err != nil {
		return fmt.Errorf("nnue: write bucket bias: %w", err)
	}
	return nil
}
