package engine

import (
	"math"
	"time"

	"github.com/corvidchess/engine/internal/board"
	"github.com/corvidchess/engine/internal/config"
)

// Control is the time-control mode a search runs under (§4.8).
type Control int

const (
	Infinite Control = iota
	FixedDuration
	FixedDepth
	FixedNodes
	Variable
)

// UCILimits carries every time-control parameter the driver can supply;
// exactly one of MoveTime/Depth/Nodes/Infinite/the wtime-btime pair is
// meaningful at once, resolved into a single Control by TimeManager.Init.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime
	Inc       [2]time.Duration // winc, binc
	MovesToGo int              // 0 = sudden death
	MoveTime  time.Duration
	Depth     int
	Nodes     uint64
	Infinite  bool
	Ponder    bool
	Overhead  time.Duration // move overhead, subtracted from the budget
}

var defaultMovesToGo = config.Default().DefaultMovesToGo

// TimeManager owns the wall clock and node budget for one search and
// decides, once per iteration and once every ~4096 nodes mid-search,
// whether to keep going (§4.8). Only the main worker of a pool
// constructs one with a real control; helper workers get Infinite.
type TimeManager struct {
	control   Control
	target    time.Duration
	maximum   time.Duration
	stopDepth int
	nodeLimit uint64
	overhead  time.Duration
	pondering bool
	startTime time.Time
}

// NewTimeManager returns an idle time manager; call Init before use.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init resolves limits into a Control and, for Variable, computes target
// and maximum per §4.8. mainThread workers that aren't the main thread
// (i.e. helpers) always get Infinite regardless of limits, matching
// §5's "helper workers are constructed with an Infinite control".
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int, mainThread bool) {
	tm.startTime = time.Now()
	tm.overhead = limits.Overhead
	tm.pondering = limits.Ponder

	if !mainThread {
		tm.control = Infinite
		return
	}

	switch {
	case limits.Infinite:
		tm.control = Infinite
	case limits.MoveTime > 0:
		tm.control = FixedDuration
		tm.maximum = limits.MoveTime
	case limits.Depth > 0 && limits.Time[us] == 0:
		tm.control = FixedDepth
		tm.stopDepth = limits.Depth
	case limits.Nodes > 0:
		tm.control = FixedNodes
		tm.nodeLimit = limits.Nodes
	case limits.Time[us] > 0:
		tm.control = Variable
		mtg := limits.MovesToGo
		if mtg <= 0 {
			mtg = defaultMovesToGo
		}
		t := limits.Time[us]
		inc := limits.Inc[us]
		target := t / time.Duration(mtg)
		if t < target+inc {
			target = t
		} else {
			target += inc
		}
		tm.target = target
		tm.maximum = target + (t-target)/4
	default:
		tm.control = Infinite
	}
}

// startCheck answers whether a new iteration should begin. effort is the
// fraction of nodes spent under the current best root move, used by
// Variable's logistic scale; it is ignored by every other control.
func (tm *TimeManager) startCheck(effort float64, depth int) bool {
	if tm.pondering {
		return true
	}
	elapsed := time.Since(tm.startTime)

	switch tm.control {
	case Infinite:
		return true
	case FixedDuration:
		return elapsed+tm.overhead <= tm.maximum
	case FixedDepth:
		return depth < tm.stopDepth
	case FixedNodes:
		return true
	case Variable:
		scale := effortScale(effort, depth)
		budget := time.Duration(float64(tm.target) * scale / 2)
		return elapsed+tm.overhead <= budget
	default:
		return false
	}
}

// effortScale maps the best-move-effort ratio to a logistic multiplier
// in [0.5, 3.0]: the less of the tree that settled on today's best move,
// the more time the next iteration is allowed. It is pinned to 1 below
// depth 9, since effort is too noisy to trust in shallow iterations.
func effortScale(effort float64, depth int) float64 {
	if depth <= 8 {
		return 1
	}
	instability := 1 - effort
	scale := 0.5 + 2.5/(1+math.Exp(-8*(instability-0.5)))
	if scale < 0.5 {
		scale = 0.5
	}
	if scale > 3.0 {
		scale = 3.0
	}
	return scale
}

// stopCheck is polled from inside the search roughly every 4096 nodes
// (§4.8); it reports whether the budget for FixedDuration/Variable/
// FixedNodes has run out. Infinite and FixedDepth never stop here —
// FixedDepth is bounded by the iterative-deepening loop itself.
func (tm *TimeManager) stopCheck(nodes uint64) bool {
	if tm.pondering {
		return false
	}
	switch tm.control {
	case FixedDuration, Variable:
		return time.Since(tm.startTime)+tm.overhead > tm.maximum
	case FixedNodes:
		return nodes >= tm.nodeLimit
	default:
		return false
	}
}

// Elapsed returns the time spent since the search began.
func (tm *TimeManager) Elapsed() time.Duration { return time.Since(tm.startTime) }

// ClearPonder clears pondering mode, letting start/stop checks resume
// normal behaviour (the "ponderhit" driver event, §4.8).
func (tm *TimeManager) ClearPonder() { tm.pondering = false }
