// Package engine implements the search core: move ordering, static
// exchange evaluation, a lock-free transposition table, time management,
// and a Lazy-SMP-lite parallel iterative-deepening search driven by NNUE
// evaluation.
package engine

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corvidchess/engine/internal/board"
	"github.com/corvidchess/engine/internal/nnue"
)

// NumWorkers is the number of parallel search threads (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// Info is one completed iteration's progress, handed to Engine.OnInfo.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Elapsed  time.Duration
	PV       []board.Move
	HashFull int
}

// Engine owns the shared transposition table and a pool of Workers that
// search the same position in parallel, reporting through OnInfo and
// returning via Search once the time manager or an explicit Stop ends
// the search (§5).
type Engine struct {
	tt      *TranspositionTable
	workers []*Worker
	nodes   atomic.Uint64
	stop    atomic.Bool
	eval    *nnue.Evaluator

	OnInfo func(Info)
}

// NewEngine builds an engine with a ttSizeMB transposition table and
// NumWorkers workers, each with its own NNUE evaluator instance.
func NewEngine(ttSizeMB int, weightsFile string) (*Engine, error) {
	return NewEngineWithThreads(ttSizeMB, weightsFile, NumWorkers)
}

// NewEngineWithThreads is NewEngine with an explicit worker count, used
// by the driver's "setoption Threads" handler (§6).
func NewEngineWithThreads(ttSizeMB int, weightsFile string, threads int) (*Engine, error) {
	if threads < 1 {
		threads = 1
	}
	tt := NewTranspositionTable(ttSizeMB)
	e := &Engine{tt: tt, workers: make([]*Worker, threads)}

	for i := range e.workers {
		ev, err := nnue.NewEvaluator(weightsFile)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			e.eval = ev
		}
		e.workers[i] = NewWorker(i, tt, &e.nodes, &e.stop, ev)
		if i == 0 {
			e.workers[i].onInfo = func(info Info) {
				if e.OnInfo != nil {
					e.OnInfo(info)
				}
			}
		}
	}
	return e, nil
}

// Search runs a parallel search of pos under limits and returns the best
// move found by the main worker (worker 0), along with its score. Helper
// workers search the same root concurrently with an Infinite time
// control, relying on the shared stop flag (§5); their results are
// discarded, as Lazy-SMP's benefit comes from diversifying the search
// tree's TT population, not from voting.
func (e *Engine) Search(pos *board.Position, limits UCILimits) (board.Move, int) {
	e.stop.Store(false)
	e.nodes.Store(0)
	e.tt.AgeUp()

	g, _ := errgroup.WithContext(context.Background())
	var mainMove board.Move
	var mainScore int

	for i, w := range e.workers {
		clone := pos.Copy()
		i, w := i, w
		g.Go(func() error {
			m, s := w.IterativeDeepen(clone, limits, i == 0)
			if i == 0 {
				mainMove, mainScore = m, s
			}
			return nil
		})
	}
	g.Wait()

	return mainMove, mainScore
}

// Stop requests every worker to halt at its next cooperative checkpoint.
func (e *Engine) Stop() { e.stop.Store(true) }

// ClearPonder clears pondering on every worker's timer (the "ponderhit"
// driver event, §4.8). Call before the next Search if pondering was set.
func (e *Engine) ClearPonder() {
	for _, w := range e.workers {
		w.timer.ClearPonder()
	}
}

// Clear resets the transposition table and every worker's move-ordering
// heuristics, used between unrelated games.
func (e *Engine) Clear() {
	e.tt.Clear()
	for _, w := range e.workers {
		w.orderer.Clear()
	}
}

// Evaluate returns the NNUE evaluation of pos in centipawns from the
// side to move's perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	e.eval.Refresh(pos)
	return e.eval.Evaluate(pos)
}

// Nodes returns the aggregate node count across every worker for the
// most recent (or in-progress) search.
func (e *Engine) Nodes() uint64 { return e.nodes.Load() }

// HashFull reports the transposition table's current occupancy in
// permille.
func (e *Engine) HashFull() int { return e.tt.HashFull() }

// Perft counts leaf nodes at depth by exhaustive legal-move enumeration,
// used to validate move generation against known node counts (§8).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return perft(pos, depth)
}

func perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var moves board.MoveList
	pos.GenerateLegalMoves(&moves)
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		pos.Push(moves.Get(i))
		nodes += perft(pos, depth-1)
		pos.Pop()
	}
	return nodes
}
