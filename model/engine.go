package model

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-automaton/rules"
)

// parallelRebuildCells is the board size above which neighbour counts are
// rebuilt by several workers.
const parallelRebuildCells = 64 * 64

// neighborOffsets lists the Moore neighbourhood as (row, col) deltas.
var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Engine evolves a board under a rule set, keeping a neighbour-count grid in
// step with the board so that each generation only touches the cells that
// changed and their neighbours.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	board  Board
	counts [][]int
	rules  rules.Rules
	warn   rules.WarningFunc

	changes    []Position
	changed    bool
	generation int
}

// Option configures an Engine at construction.
type Option func(*engineOptions)

type engineOptions struct {
	ruleSet *rules.RuleSet
	warn    rules.WarningFunc
}

// WithRules replaces the default B3/S23 rule set. A nil rs is rejected.
func WithRules(rs *rules.RuleSet) Option {
	return func(o *engineOptions) { o.ruleSet = rs }
}

// WithWarningFunc installs the sink for dropped rule values.
func WithWarningFunc(fn rules.WarningFunc) Option {
	return func(o *engineOptions) { o.warn = fn }
}

// NewEngine validates and stores board and rules.
func NewEngine(board Board, opts ...Option) (*Engine, error) {
	o := engineOptions{ruleSet: rules.Conway()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{warn: o.warn}
	if err := e.AssignRules(o.ruleSet); err != nil {
		return nil, err
	}
	if err := e.AssignBoard(board); err != nil {
		return nil, err
	}
	return e, nil
}

// AssignBoard replaces the board with a copy of board and rebuilds the
// neighbour counts. On error the engine is left unchanged.
func (e *Engine) AssignBoard(board Board) error {
	if board == nil {
		return errors.Wrap(ErrInvalidBoard, "board is absent")
	}

	next := board.Clone()
	counts, err := buildCounts(next)
	if err != nil {
		return errors.Wrap(err, "[AssignBoard] failed to build neighbour counts")
	}

	e.board = next
	e.counts = counts
	e.changes = e.changes[:0]
	e.changed = false
	e.generation = 0
	return nil
}

// AssignRules replaces the rule set. Values outside [0,8] are dropped and
// reported to the warning sink; the board is not touched.
func (e *Engine) AssignRules(rs *rules.RuleSet) error {
	compiled, err := rules.Compile(rs, e.warn)
	if err != nil {
		return err
	}
	e.rules = compiled
	return nil
}

// Advance computes the next generation.
func (e *Engine) Advance() {
	e.changes = e.changes[:0]

	// decide against the current counts before mutating anything
	for r, row := range e.board {
		for c, alive := range row {
			if e.rules.Next(alive, e.counts[r][c]) != alive {
				e.changes = append(e.changes, Position{Row: r, Col: c})
			}
		}
	}

	for _, p := range e.changes {
		alive := !e.board[p.Row][p.Col]
		e.board[p.Row][p.Col] = alive

		delta := -1
		if alive {
			delta = 1
		}
		for _, off := range neighborOffsets {
			nr, nc := p.Row+off[0], p.Col+off[1]
			if e.board.Contains(nr, nc) {
				e.counts[nr][nc] += delta
			}
		}
	}

	e.changed = len(e.changes) > 0
	e.generation++
}

// IsExtinct reports whether every cell is dead.
func (e *Engine) IsExtinct() bool {
	for _, row := range e.board {
		for _, alive := range row {
			if alive {
				return false
			}
		}
	}
	return true
}

// HasChanged reports whether the most recent Advance flipped any cell. It is
// false after AssignBoard until the next Advance.
func (e *Engine) HasChanged() bool { return e.changed }

// Board returns a copy of the current board.
func (e *Engine) Board() Board { return e.board.Clone() }

// String renders the board with LiveGlyph and DeadGlyph.
func (e *Engine) String() string { return e.board.String() }

// Population returns the number of live cells.
func (e *Engine) Population() int { return e.board.Population() }

// Generation returns the number of Advance calls since the last AssignBoard.
func (e *Engine) Generation() int { return e.generation }

// Rules returns the active, filtered rules.
func (e *Engine) Rules() rules.Rules { return e.rules }

// Changes returns the cells flipped by the most recent Advance.
func (e *Engine) Changes() []Position {
	return append([]Position(nil), e.changes...)
}

// NeighbourCount returns the live neighbour count of (row, col), or 0 when
// the position is off the board.
func (e *Engine) NeighbourCount(row, col int) int {
	if !e.board.Contains(row, col) {
		return 0
	}
	return e.counts[row][col]
}

// buildCounts computes the neighbour-count grid from scratch. Large boards are
// split into row bands processed by separate workers; each worker only writes
// its own rows.
func buildCounts(b Board) ([][]int, error) {
	counts := make([][]int, len(b))
	cells := 0
	for r, row := range b {
		counts[r] = make([]int, len(row))
		cells += len(row)
	}

	if cells < parallelRebuildCells {
		countRows(b, counts, 0, len(b))
		return counts, nil
	}

	var (
		eg            errgroup.Group
		numWorkers    = min(runtime.NumCPU(), len(b))
		rowsPerWorker = (len(b) + numWorkers - 1) / numWorkers // Ceiling division
	)
	for i := 0; i < numWorkers; i++ {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, len(b))
		)
		if startRow >= len(b) {
			break
		}
		eg.Go(func() error {
			countRows(b, counts, startRow, endRow)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func countRows(b Board, counts [][]int, startRow, endRow int) {
	for r := startRow; r < endRow; r++ {
		for c := range b[r] {
			n := 0
			for _, off := range neighborOffsets {
				if b.Get(r+off[0], c+off[1]) {
					n++
				}
			}
			counts[r][c] = n
		}
	}
}
