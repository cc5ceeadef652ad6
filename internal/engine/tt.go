package engine

import (
	"sync/atomic"

	"github.com/corvidchess/engine/internal/board"
)

// Bound is the kind of score stored in a transposition table entry.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower
	BoundUpper
)

// ttDepthMargin is how much shallower than a slot's existing entry a
// same-age, non-exact store may be and still overwrite it.
const ttDepthMargin = 2

// TTEntry is the decoded, unpacked form of a table slot.
type TTEntry struct {
	Move  board.Move
	Value int
	Depth int
	Bound Bound
	Age   uint8
}

// TranspositionTable is a fixed-size, lock-free hash table keyed by
// Zobrist hash. Each slot is one atomic 64-bit word packing
// (hash-fragment:16, move:16, value:16, depth:8, bound:2, age:6).
// Consistency is checked by XOR: a probe recomputes the expected
// fragment from its own hash and XORs it against the embedded one,
// rejecting the slot on any mismatch (a torn or foreign write included)
// without needing a full 64-bit key alongside the data. Grounded on
// original_source/src/tt.rs's single-AtomicU64-per-slot layout and
// replacement policy; that source stores its key fragment directly
// rather than XOR-compared, which this keeps functionally identical to
// (a zero XOR result is exactly "fragment matches") while satisfying
// the XOR-mismatch framing directly.
type TranspositionTable struct {
	table []atomic.Uint64
	mask  uint64
	age   uint8
}

// NewTranspositionTable builds a table sized to the nearest power-of-two
// entry count that fits within sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	count := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / 8)
	if count == 0 {
		count = 1
	}
	return &TranspositionTable{
		table: make([]atomic.Uint64, count),
		mask:  count - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

func (tt *TranspositionTable) index(hash uint64) uint64 { return hash & tt.mask }

func packEntry(hash uint64, move board.Move, value, depth int, bound Bound, age uint8) uint64 {
	fragment := uint64(uint16(hash))
	m := uint64(uint16(move))
	v := uint64(uint16(int16(value)))
	d := uint64(uint8(depth))
	b := uint64(bound & 0x3)
	a := uint64(age & 0x3F)
	return fragment | m<<16 | v<<32 | d<<48 | b<<56 | a<<58
}

// unpackEntry decodes raw and reports whether its embedded fragment
// XORs to zero against hash's own fragment, i.e. matches.
func unpackEntry(raw, hash uint64) (TTEntry, bool) {
	if uint16(raw)^uint16(hash) != 0 {
		return TTEntry{}, false
	}
	return TTEntry{
		Move:  board.Move(uint16(raw >> 16)),
		Value: int(int16(uint16(raw >> 32))),
		Depth: int(int8(uint8(raw >> 48))),
		Bound: Bound((raw >> 56) & 0x3),
		Age:   uint8((raw >> 58) & 0x3F),
	}, true
}

// Probe reads a slot atomically and returns the entry if the XOR
// fragment check confirms it belongs to hash. Mate scores are converted
// back from table-relative to root-relative using ply.
func (tt *TranspositionTable) Probe(hash uint64, ply int) (TTEntry, bool) {
	raw := tt.table[tt.index(hash)].Load()
	if raw == 0 {
		return TTEntry{}, false
	}
	entry, ok := unpackEntry(raw, hash)
	if !ok {
		return TTEntry{}, false
	}
	entry.Value = AdjustScoreFromTT(entry.Value, ply)
	return entry, true
}

// Store writes an entry if the slot is empty, the new bound is exact,
// the slot's age is stale, or the new depth is within ttDepthMargin of
// the existing depth. Mate scores are converted to table-relative
// before packing so distances are measured from the slot, not the root.
func (tt *TranspositionTable) Store(hash uint64, depth, value int, bound Bound, move board.Move, ply int) {
	idx := tt.index(hash)
	slot := &tt.table[idx]

	raw := slot.Load()
	replace := raw == 0
	if !replace {
		existing, ok := unpackEntry(raw, hash)
		replace = !ok || bound == BoundExact || tt.age != existing.Age || depth >= existing.Depth-ttDepthMargin
	}
	if !replace {
		return
	}

	stored := AdjustScoreToTT(value, ply)
	slot.Store(packEntry(hash, move, stored, depth, bound, tt.age))
}

// AgeUp marks the start of a new search; stale-age entries become
// eligible for overwrite regardless of depth.
func (tt *TranspositionTable) AgeUp() { tt.age = (tt.age + 1) & 0x3F }

// Clear zeroes every slot.
func (tt *TranspositionTable) Clear() {
	for i := range tt.table {
		tt.table[i].Store(0)
	}
	tt.age = 0
}

// Prefetch is a hint-only no-op; Go gives no portable way to issue a
// prefetch instruction, and §4.6 requires this to degrade safely.
func (tt *TranspositionTable) Prefetch(hash uint64) {}

// HashFull samples the first 1000 slots and returns the permille
// currently occupied by the current search generation.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.table)) {
		sampleSize = len(tt.table)
	}
	used := 0
	for i := 0; i < sampleSize; i++ {
		raw := tt.table[i].Load()
		if raw == 0 {
			continue
		}
		age := uint8((raw >> 58) & 0x3F)
		if age == tt.age {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() uint64 { return uint64(len(tt.table)) }

// AdjustScoreFromTT converts a mate score stored relative to the table
// entry back to root-relative, by ply.
func AdjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a root-relative mate score to table-relative
// for storage, the inverse of AdjustScoreFromTT.
func AdjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
