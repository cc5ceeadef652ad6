// Package protocol implements the textual command loop a UCI driver
// speaks to the engine: it is the thin, stateful shell around
// internal/engine that turns "position"/"go"/"stop" lines into
// board.Position and UCILimits values and formats search progress back
// into "info"/"bestmove" lines (§6).
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/corvidchess/engine/internal/board"
	"github.com/corvidchess/engine/internal/engine"
)

// defaultHashMB and defaultOverhead match the option defaults reported
// by handleUCI.
const (
	defaultHashMB    = 64
	defaultOverhead  = 10 * time.Millisecond
	defaultWeightsMB = ""
)

// Driver runs the command loop described by §6: it owns the current
// position, a record of the hashes of the positions played to reach it,
// and the engine instance, translating UCI text in both directions.
// Repetition detection reads the position's own history, not that record.
type Driver struct {
	out io.Writer

	eng      *engine.Engine
	hashMB   int
	threads  int
	overhead time.Duration

	position       *board.Position
	positionHashes []uint64

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool
}

// New builds a driver with a fresh engine at the default hash size.
func New(out io.Writer) *Driver {
	d := &Driver{out: out, hashMB: defaultHashMB, threads: 1, overhead: defaultOverhead}
	d.rebuildEngine()
	d.position = board.NewPosition()
	return d
}

func (d *Driver) rebuildEngine() {
	eng, err := engine.NewEngineWithThreads(d.hashMB, defaultWeightsMB, d.threads)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string failed to build engine: %v\n", err)
		return
	}
	d.eng = eng
	d.eng.OnInfo = d.sendInfo
}

// Run reads UCI commands from in until EOF or "quit".
func (d *Driver) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "uci":
			d.handleUCI()
		case "isready":
			fmt.Fprintln(d.out, "readyok")
		case "ucinewgame":
			d.handleNewGame()
		case "position":
			d.handlePosition(args)
		case "go":
			d.handleGo(args)
		case "stop":
			d.handleStop()
		case "ponderhit":
			d.eng.ClearPonder()
		case "quit":
			d.handleStop()
			return
		case "setoption":
			d.handleSetOption(args)
		case "d":
			fmt.Fprintln(d.out, d.position.String())
		case "perft":
			d.handlePerft(args)
		}
	}
}

func (d *Driver) handleUCI() {
	fmt.Fprintln(d.out, "id name Corvid")
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "option name Hash type spin default 64 min 1 max 4096")
	fmt.Fprintln(d.out, "option name Threads type spin default 1 min 1 max 512")
	fmt.Fprintln(d.out, "option name Move Overhead type spin default 10 min 0 max 5000")
	fmt.Fprintln(d.out, "option name Ponder type check default false")
	fmt.Fprintln(d.out, "uciok")
}

func (d *Driver) handleNewGame() {
	d.eng.Clear()
	d.position = board.NewPosition()
	d.positionHashes = []uint64{d.position.Hash}
}

// handlePosition parses "position startpos|fen <fen> [moves ...]".
func (d *Driver) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	moveStart := len(args)
	switch args[0] {
	case "startpos":
		d.position = board.NewPosition()
		moveStart = 1
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}
		pos, err := board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid fen: %v\n", err)
			return
		}
		d.position = pos
		moveStart = fenEnd
	default:
		return
	}

	for i, a := range args {
		if a == "moves" {
			moveStart = i + 1
			break
		}
	}

	d.positionHashes = []uint64{d.position.Hash}
	for i := moveStart; i < len(args); i++ {
		m := d.parseMove(args[i])
		if m == board.NoMove {
			fmt.Fprintf(os.Stderr, "info string invalid move: %s\n", args[i])
			return
		}
		d.position.Push(m)
		d.positionHashes = append(d.positionHashes, d.position.Hash)
	}
}

// parseMove matches a UCI long-algebraic string against the current
// position's legal moves (§6).
func (d *Driver) parseMove(s string) board.Move {
	if len(s) < 4 {
		return board.NoMove
	}
	from := board.NewSquare(int(s[0]-'a'), int(s[1]-'1'))
	to := board.NewSquare(int(s[2]-'a'), int(s[3]-'1'))

	var promo board.PieceType = board.NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	var moves board.MoveList
	d.position.GenerateLegalMoves(&moves)
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if m.PromotionType() == promo {
				return m
			}
			continue
		}
		if promo == board.NoPieceType {
			return m
		}
	}
	return board.NoMove
}

// goOptions holds the parsed arguments of a "go" command.
type goOptions struct {
	depth     int
	nodes     uint64
	moveTime  time.Duration
	infinite  bool
	ponder    bool
	wtime     time.Duration
	btime     time.Duration
	winc      time.Duration
	binc      time.Duration
	movesToGo int
}

func (d *Driver) handleGo(args []string) {
	opts := d.parseGoOptions(args)
	limits := d.toLimits(opts)

	d.searching = true
	d.stopRequested.Store(false)
	d.searchDone = make(chan struct{})

	pos := d.position.Copy()
	go func() {
		defer close(d.searchDone)
		move, _ := d.eng.Search(pos, limits)
		d.searching = false
		if move == board.NoMove {
			fmt.Fprintln(d.out, "bestmove 0000")
			return
		}
		fmt.Fprintf(d.out, "bestmove %s\n", move.String())
	}()
}

func (d *Driver) parseGoOptions(args []string) goOptions {
	var o goOptions
	atoi := func(s string) int { n, _ := strconv.Atoi(s); return n }
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			i++
			o.depth = atoi(args[i])
		case "nodes":
			i++
			n, _ := strconv.ParseUint(args[i], 10, 64)
			o.nodes = n
		case "movetime":
			i++
			o.moveTime = time.Duration(atoi(args[i])) * time.Millisecond
		case "infinite":
			o.infinite = true
		case "ponder":
			o.ponder = true
		case "wtime":
			i++
			o.wtime = time.Duration(atoi(args[i])) * time.Millisecond
		case "btime":
			i++
			o.btime = time.Duration(atoi(args[i])) * time.Millisecond
		case "winc":
			i++
			o.winc = time.Duration(atoi(args[i])) * time.Millisecond
		case "binc":
			i++
			o.binc = time.Duration(atoi(args[i])) * time.Millisecond
		case "movestogo":
			i++
			o.movesToGo = atoi(args[i])
		}
	}
	return o
}

func (d *Driver) toLimits(o goOptions) engine.UCILimits {
	limits := engine.UCILimits{
		Depth:     o.depth,
		Nodes:     o.nodes,
		MoveTime:  o.moveTime,
		Infinite:  o.infinite,
		Ponder:    o.ponder,
		MovesToGo: o.movesToGo,
		Overhead:  d.overhead,
	}
	limits.Time[board.White] = o.wtime
	limits.Time[board.Black] = o.btime
	limits.Inc[board.White] = o.winc
	limits.Inc[board.Black] = o.binc
	return limits
}

// sendInfo formats one completed iteration as a §6 "info" line.
func (d *Driver) sendInfo(info engine.Info) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d seldepth %d", info.Depth, info.SelDepth)

	if info.Score > engine.MateScore-engine.MaxPly {
		fmt.Fprintf(&b, " score mate %d", (engine.MateScore-info.Score+1)/2)
	} else if info.Score < -engine.MateScore+engine.MaxPly {
		fmt.Fprintf(&b, " score mate %d", -(engine.MateScore+info.Score+1)/2)
	} else {
		fmt.Fprintf(&b, " score cp %d", info.Score)
	}

	ms := info.Elapsed.Milliseconds()
	fmt.Fprintf(&b, " time %d nodes %d", ms, info.Nodes)
	if ms > 0 {
		fmt.Fprintf(&b, " nps %d", info.Nodes*1000/uint64(ms))
	}
	if info.HashFull > 0 {
		fmt.Fprintf(&b, " hashfull %d", info.HashFull)
	}
	if len(info.PV) > 0 {
		strs := make([]string, len(info.PV))
		for i, m := range info.PV {
			strs[i] = m.String()
		}
		fmt.Fprintf(&b, " pv %s", strings.Join(strs, " "))
	}
	fmt.Fprintln(d.out, b.String())
}

func (d *Driver) handleStop() {
	if d.searching {
		d.stopRequested.Store(true)
		d.eng.Stop()
		<-d.searchDone
	}
}

func (d *Driver) handleSetOption(args []string) {
	var name, value string
	var readingName, readingValue bool
	for _, a := range args {
		switch a {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				name = strings.TrimSpace(name + " " + a)
			} else if readingValue {
				value = strings.TrimSpace(value + " " + a)
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil && mb >= 1 {
			d.hashMB = mb
			d.rebuildEngine()
		}
	case "move overhead":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			d.overhead = time.Duration(ms) * time.Millisecond
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			d.threads = n
			d.rebuildEngine()
		}
	}
}

func (d *Driver) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}
	start := time.Now()
	nodes := d.eng.Perft(d.position, depth)
	elapsed := time.Since(start)

	fmt.Fprintf(d.out, "Nodes: %d\n", nodes)
	fmt.Fprintf(d.out, "Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Fprintf(d.out, "NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
