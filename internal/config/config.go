// Package config loads the tunable search coefficients — aspiration
// window width, pruning margins, move-overhead default — from an
// optional TOML file, falling back to the values §4.7/§4.8 prescribe
// when none is supplied.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Search holds the tunable coefficients loaded at startup. Each field's
// TOML key is given by its struct tag. MoveOverheadMS is loaded but not
// applied by engine.SetConfig; the protocol driver's own Move Overhead
// option sets the overhead the time manager uses.
type Search struct {
	AspirationWindow int `toml:"aspiration_window"`

	ReverseFutilityMargin   int `toml:"rfp_margin"`
	ReverseFutilityMaxDepth int `toml:"rfp_max_depth"`

	IIDMinDepth int `toml:"iid_min_depth"`

	DefaultMovesToGo int `toml:"default_moves_to_go"`
	MoveOverheadMS   int `toml:"move_overhead_ms"`
}

// MoveOverhead converts MoveOverheadMS into a time.Duration.
func (s Search) MoveOverhead() time.Duration {
	return time.Duration(s.MoveOverheadMS) * time.Millisecond
}

// Default returns the coefficients named directly in the design: a 60cp
// aspiration half-width, reverse futility pruning to depth 9 at 63cp per
// ply, the depth-7 internal-iterative-deepening-as-reduction threshold,
// 40 moves-to-go for sudden death, and a 10ms move overhead.
func Default() Search {
	return Search{
		AspirationWindow:        60,
		ReverseFutilityMargin:   63,
		ReverseFutilityMaxDepth: 9,
		IIDMinDepth:             7,
		DefaultMovesToGo:        40,
		MoveOverheadMS:          10,
	}
}

// Load reads coefficients from a TOML file at path, starting from
// Default() so an incomplete file only overrides the keys it sets.
func Load(path string) (Search, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
