package engine

import (
	"math"
	"sync/atomic"

	"github.com/corvidchess/engine/internal/board"
	"github.com/corvidchess/engine/internal/config"
	"github.com/corvidchess/engine/internal/nnue"
)

// Search-wide constants. MATE is the sentinel score; a value v is a mate
// score iff 2*|v| >= MateScore (§4.7).
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Tunable coefficients, seeded from config.Default() and overridable via
// SetConfig at startup (internal/config loads them from TOML).
var (
	aspirationWindow = config.Default().AspirationWindow
	rfpMargin        = config.Default().ReverseFutilityMargin
	rfpMaxDepth      = config.Default().ReverseFutilityMaxDepth
	iidMinDepth      = config.Default().IIDMinDepth
)

// SetConfig overrides the package's tunable search coefficients. Call
// once before constructing any Engine/Worker.
func SetConfig(cfg config.Search) {
	aspirationWindow = cfg.AspirationWindow
	rfpMargin = cfg.ReverseFutilityMargin
	rfpMaxDepth = cfg.ReverseFutilityMaxDepth
	iidMinDepth = cfg.IIDMinDepth
	defaultMovesToGo = cfg.DefaultMovesToGo
}

// lmrTable[depth][moveIndex] is the late-move reduction, precomputed as
// round(0.11 + ln(depth)*ln(idx)/1.56) (§4.7 step 10).
var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for i := 1; i < 64; i++ {
			r := 0.11 + math.Log(float64(d))*math.Log(float64(i))/1.56
			lmrTable[d][i] = int(math.Round(r))
		}
	}
}

// PVTable records the principal variation discovered at each ply, using
// the classic triangular layout: ply's line is this move followed by
// ply+1's line.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	for i := ply + 1; i < pv.length[ply+1]; i++ {
		pv.moves[ply][i] = pv.moves[ply+1][i]
	}
	pv.length[ply] = pv.length[ply+1]
	if pv.length[ply] <= ply {
		pv.length[ply] = ply + 1
	}
}

// Line returns the principal variation found from the root.
func (pv *PVTable) Line() []board.Move {
	return append([]board.Move(nil), pv.moves[0][:pv.length[0]]...)
}

// Worker runs one thread of a Lazy-SMP-lite parallel search. It owns its
// own Position, move-ordering tables and NNUE evaluator; it shares the
// transposition table, the stop flag and the aggregate node counter with
// every other worker in the pool (§5).
type Worker struct {
	id      int
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer
	eval    *nnue.Evaluator

	nodes *atomic.Uint64
	stop  *atomic.Bool
	timer *TimeManager

	pv        PVTable
	rootMoves board.MoveList
	rootNodes [256]uint64 // nodes spent under each root move, by rootMoves index

	selDepth int
	onInfo   func(Info)
}

// NewWorker builds a worker sharing tt, nodes and stop with its pool.
func NewWorker(id int, tt *TranspositionTable, nodes *atomic.Uint64, stop *atomic.Bool, eval *nnue.Evaluator) *Worker {
	return &Worker{
		id:      id,
		tt:      tt,
		orderer: NewMoveOrderer(),
		eval:    eval,
		nodes:   nodes,
		stop:    stop,
		timer:   NewTimeManager(),
	}
}

// stopped reports the shared stop flag with acquire semantics (§5).
func (w *Worker) stopped() bool { return w.stop.Load() }

// checkTime polls the clock roughly every 4096 nodes, the cadence §4.8
// prescribes for stop_check, and sets the shared stop flag when the
// worker owns the wall clock and the time budget is exhausted.
func (w *Worker) checkTime(mainThread bool) {
	if !mainThread {
		return
	}
	n := w.nodes.Load()
	if n&0xFFF != 0 {
		return
	}
	if w.timer.stopCheck(n) {
		w.stop.Store(true)
	}
}

// IterativeDeepen runs the iterative-deepening loop (§4.7) from pos up to
// limits, returning the best move found. mainThread workers own the
// timer and may set the shared stop flag; helper workers search with an
// Infinite control and rely on the main thread's stop.
func (w *Worker) IterativeDeepen(pos *board.Position, limits UCILimits, mainThread bool) (board.Move, int) {
	w.pos = pos
	w.orderer.Clear()
	w.eval.Refresh(pos)

	w.timer.Init(limits, pos.SideToMove, pos.Ply, mainThread)

	w.rootMoves.Clear()
	pos.GenerateLegalMoves(&w.rootMoves)
	if w.rootMoves.Len() == 0 {
		return board.NoMove, 0
	}

	var bestMove board.Move
	var bestScore int
	alpha, beta := -Infinity, Infinity

	for depth := 1; depth < MaxPly; depth++ {
		if w.stopped() {
			break
		}
		if depth > 1 {
			alpha = bestScore - aspirationWindow
			beta = bestScore + aspirationWindow
		}

		var score int
		var move board.Move
		for {
			score, move = w.searchRoot(depth, alpha, beta)
			if w.stopped() {
				break
			}
			if score <= alpha {
				alpha = -Infinity
			} else if score >= beta {
				beta = Infinity
			} else {
				break
			}
		}

		if w.stopped() && depth > 1 {
			break
		}
		bestScore, bestMove = score, move

		if w.onInfo != nil {
			w.onInfo(Info{
				Depth:    depth,
				SelDepth: w.selDepth,
				Score:    bestScore,
				Nodes:    w.nodes.Load(),
				Elapsed:  w.timer.Elapsed(),
				PV:       w.pv.Line(),
				HashFull: w.tt.HashFull(),
			})
		}
		w.selDepth = 0

		if !w.timer.startCheck(w.rootMoveEffort(bestMove), depth) {
			break
		}
	}

	return bestMove, bestScore
}

// rootMoveEffort is the fraction of nodes spent under the current best
// root move versus every root move searched so far, the input to the
// Variable time control's "best move effort" scale (§4.8).
func (w *Worker) rootMoveEffort(best board.Move) float64 {
	var bestNodes, total uint64
	for i := 0; i < w.rootMoves.Len(); i++ {
		n := w.rootNodes[i]
		total += n
		if w.rootMoves.Get(i) == best {
			bestNodes = n
		}
	}
	if total == 0 {
		return 1
	}
	return float64(bestNodes) / float64(total)
}

// searchRoot implements §4.7's root search: first move full window,
// later moves a zero-window scout researched on fail-high.
func (w *Worker) searchRoot(depth, alpha, beta int) (int, board.Move) {
	pos := w.pos
	if pos.InCheck() {
		depth++
	}

	var ttMove board.Move
	if entry, ok := w.tt.Probe(pos.Hash, 0); ok {
		ttMove = entry.Move
	}

	scores := w.orderer.ScoreMoves(pos, &w.rootMoves, 0, ttMove, board.NoMove, false)

	var best board.Move
	bestScore := -Infinity
	origAlpha := alpha

	for i := 0; i < w.rootMoves.Len(); i++ {
		PickMove(&w.rootMoves, scores, i)
		m := w.rootMoves.Get(i)

		nodesBefore := w.nodes.Load()
		pos.Push(m)
		w.eval.Push()
		w.eval.Update(pos)

		var value int
		if i == 0 {
			value = -w.search(depth-1, -beta, -alpha, 1)
		} else {
			value = -w.search(depth-1, -alpha-1, -alpha, 1)
			if value > alpha && value < beta {
				value = -w.search(depth-1, -beta, -alpha, 1)
			}
		}

		w.eval.Pop()
		pos.Pop()
		w.rootNodes[i] = w.nodes.Load() - nodesBefore

		if w.stopped() {
			if best == board.NoMove {
				best, bestScore = m, value
			}
			break
		}

		if value > bestScore {
			bestScore, best = value, m
			w.pv.update(0, m)
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
	}

	var bound Bound
	switch {
	case bestScore <= origAlpha:
		bound = BoundUpper
	case bestScore >= beta:
		bound = BoundLower
	default:
		bound = BoundExact
	}
	w.tt.Store(pos.Hash, depth, bestScore, bound, best, 0)
	return bestScore, best
}

// search implements the 12-step interior search of §4.7.
func (w *Worker) search(depth, alpha, beta, ply int) int {
	mainThread := w.id == 0

	// 1. Cooperative stop check.
	if w.stopped() {
		return 0
	}
	w.checkTime(mainThread)
	if ply > w.selDepth {
		w.selDepth = ply
	}

	// 2. Mate-distance pruning.
	if a := -MateScore + ply; a > alpha {
		alpha = a
	}
	if b := MateScore - ply - 1; b < beta {
		beta = b
	}
	if alpha >= beta {
		return alpha
	}

	pos := w.pos
	inCheck := pos.InCheck()

	// 3. Check extension.
	if inCheck {
		depth++
	}

	// 4. Quiescence handoff.
	if depth <= 0 {
		return w.quiescence(alpha, beta, ply)
	}
	w.nodes.Add(1)

	// 5. Draw detection.
	if ply > 0 && pos.IsDraw() {
		return 0
	}

	// 6. PV-ness.
	isPV := alpha != beta-1

	// 7. TT probe.
	var ttMove board.Move
	if entry, ok := w.tt.Probe(pos.Hash, ply); ok {
		ttMove = entry.Move
		if entry.Depth >= depth && !isPV {
			switch entry.Bound {
			case BoundExact:
				return entry.Value
			case BoundLower:
				if entry.Value >= beta {
					return entry.Value
				}
			case BoundUpper:
				if entry.Value <= alpha {
					return entry.Value
				}
			}
		}
	} else if depth >= iidMinDepth && !inCheck && !isPV {
		depth -= 2
	}

	eval := w.eval.Evaluate(pos)

	// 8. Reverse futility pruning.
	if depth <= rfpMaxDepth && !inCheck && !isPV && 2*abs(beta) < MateScore {
		if eval-rfpMargin*depth >= beta {
			return eval
		}
	}

	// 9. Null move pruning.
	if !isPV && !inCheck && depth >= 2 && pos.LastMove() != board.NoMove &&
		eval >= beta && 2*abs(beta) < MateScore && hasNonPawnMaterial(pos) {
		reduction := 1 + (depth-2)/2
		pos.PushNull()
		w.eval.Push()
		value := -w.search(depth-1-reduction, -beta, -beta+1, ply+1)
		w.eval.Pop()
		pos.PopNull()
		if w.stopped() {
			return 0
		}
		if value >= beta {
			return beta
		}
	}

	// 10. Move loop.
	var moves board.MoveList
	pos.GenerateLegalMoves(&moves)
	if moves.Len() == 0 {
		if inCheck {
			return -(MateScore - ply)
		}
		return 0
	}

	scores := w.orderer.ScoreMoves(pos, &moves, ply, ttMove, pos.LastMove(), false)

	origAlpha := alpha
	var best board.Move
	bestScore := -Infinity
	movesSearched := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(&moves, scores, i)
		m := moves.Get(i)
		quiet := !m.IsCapture() && !m.IsPromotion()

		pos.Push(m)
		w.eval.Push()
		w.eval.Update(pos)
		w.tt.Prefetch(pos.Hash)

		var value int
		if movesSearched == 0 {
			value = -w.search(depth-1, -beta, -alpha, ply+1)
		} else {
			newDepth := depth - 1
			reduced := newDepth
			if quiet && movesSearched >= 3 && depth >= 2 {
				r := lmrTable[min64(depth, 63)][min64(movesSearched, 63)]
				reduced = newDepth - r
				if reduced < 0 {
					reduced = 0
				}
			}

			value = -w.search(reduced, -alpha-1, -alpha, ply+1)
			if value > alpha && reduced < newDepth {
				value = -w.search(newDepth, -alpha-1, -alpha, ply+1)
			}
			if value > alpha && value < beta {
				value = -w.search(newDepth, -beta, -alpha, ply+1)
			}
		}

		w.eval.Pop()
		pos.Pop()
		movesSearched++

		// Cooperative stop check.
		if w.stopped() {
			return 0
		}

		if value > bestScore {
			bestScore, best = value, m
		}
		if value > alpha {
			alpha = value
			w.pv.update(ply, m)
		}
		if alpha >= beta {
			if quiet {
				w.orderer.UpdateKillers(m, ply)
				w.orderer.UpdateHistory(pos.SideToMove, m, depth, true)
				w.orderer.UpdateCounterMove(pos.LastMove(), m, pos)
			}
			w.tt.Store(pos.Hash, depth, beta, BoundLower, m, ply)
			return beta
		}
	}

	bound := BoundUpper
	if bestScore > origAlpha {
		bound = BoundExact
	}
	w.tt.Store(pos.Hash, depth, bestScore, bound, best, ply)
	return bestScore
}

// quiescence implements §4.7's q_search: stand pat, then captures and
// promotions only, breaking at the first move whose SEE-adjusted
// ordering score is negative.
func (w *Worker) quiescence(alpha, beta, ply int) int {
	w.nodes.Add(1)
	if w.stopped() {
		return 0
	}
	if ply > w.selDepth {
		w.selDepth = ply
	}

	pos := w.pos
	if pos.IsDraw() {
		return 0
	}
	if ply >= MaxPly {
		return w.eval.Evaluate(pos)
	}

	var ttMove board.Move
	if entry, ok := w.tt.Probe(pos.Hash, ply); ok {
		ttMove = entry.Move
		switch entry.Bound {
		case BoundExact:
			return entry.Value
		case BoundLower:
			if entry.Value >= beta {
				return entry.Value
			}
		case BoundUpper:
			if entry.Value <= alpha {
				return entry.Value
			}
		}
	}

	standPat := w.eval.Evaluate(pos)
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	var moves board.MoveList
	pos.GenerateCaptures(&moves)
	scores := w.orderer.ScoreMoves(pos, &moves, ply, ttMove, board.NoMove, true)

	best := standPat
	for i := 0; i < moves.Len(); i++ {
		PickMove(&moves, scores, i)
		if scores[i] < 0 {
			break
		}
		m := moves.Get(i)

		pos.Push(m)
		w.eval.Push()
		w.eval.Update(pos)
		value := -w.quiescence(-beta, -alpha, ply+1)
		w.eval.Pop()
		pos.Pop()

		if w.stopped() {
			return 0
		}

		if value > best {
			best = value
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
	}

	return best
}

func hasNonPawnMaterial(pos *board.Position) bool {
	us := pos.SideToMove
	return pos.Pieces[us][board.Knight]|pos.Pieces[us][board.Bishop]|
		pos.Pieces[us][board.Rook]|pos.Pieces[us][board.Queen] != 0
}

func min64(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
