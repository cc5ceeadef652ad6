package engine

import "testing"

// TestTTStoreProbeRoundTrip checks that a stored entry probes back with
// the same move, depth, bound and value (up to ply-relative mate-score
// adjustment) for the hash it was stored under (§4.6).
func TestTTStoreProbeRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(1)

	hash := uint64(0xABCDEF0123456789)
	tt.Store(hash, 12, 345, BoundExact, 0x1234, 3)

	entry, ok := tt.Probe(hash, 3)
	if !ok {
		t.Fatal("Probe missed an entry just stored")
	}
	if entry.Depth != 12 || entry.Value != 345 || entry.Bound != BoundExact || entry.Move != 0x1234 {
		t.Errorf("round trip mismatch: got %+v", entry)
	}
}

// TestTTProbeRejectsForeignHash checks that a slot collision between two
// different hashes is detected by the fragment XOR check rather than
// silently returning the wrong entry. A single-slot table forces every
// hash into the same slot, isolating the fragment check from indexing.
func TestTTProbeRejectsForeignHash(t *testing.T) {
	tt := NewTranspositionTable(0)
	if tt.Size() != 1 {
		t.Fatalf("expected a single-slot table, got %d slots", tt.Size())
	}

	hash := uint64(0x1111111100001111)
	tt.Store(hash, 5, 10, BoundExact, 0x55, 0)

	foreignHash := hash ^ 0x0000000000008000 // flips a bit inside the 16-bit fragment
	if _, ok := tt.Probe(foreignHash, 0); ok {
		t.Error("Probe accepted an entry stored under a different hash fragment")
	}
}

// TestMateScoreAdjustRoundTrip checks that converting a mate score to
// table-relative and back recovers the original root-relative value,
// for both winning and losing mate scores near the MaxPly boundary.
func TestMateScoreAdjustRoundTrip(t *testing.T) {
	ply := 7
	for _, score := range []int{MateScore - 1, MateScore - MaxPly + 1, -(MateScore - 1), -(MateScore - MaxPly + 1)} {
		stored := AdjustScoreToTT(score, ply)
		got := AdjustScoreFromTT(stored, ply)
		if got != score {
			t.Errorf("score %d: round trip gave %d (via stored %d)", score, got, stored)
		}
	}
}

// TestMateScoreAdjustIgnoresNonMateScores checks ordinary centipawn
// scores pass through the ply adjustment unchanged.
func TestMateScoreAdjustIgnoresNonMateScores(t *testing.T) {
	for _, score := range []int{0, 123, -456} {
		if got := AdjustScoreToTT(score, 5); got != score {
			t.Errorf("AdjustScoreToTT(%d, 5) = %d, want unchanged", score, got)
		}
		if got := AdjustScoreFromTT(score, 5); got != score {
			t.Errorf("AdjustScoreFromTT(%d, 5) = %d, want unchanged", score, got)
		}
	}
}
