package model

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrInvalidBoard is returned when a supplied board is absent or holds a
// cell that is not strictly boolean.
var ErrInvalidBoard = errors.New("invalid board")

// Board is a grid of cells indexed [row][col]; true is alive. Rows may differ
// in length, in which case a missing cell reads as dead.
type Board [][]bool

// Position addresses a single cell.
type Position struct {
	Row, Col int
}

// NewBoard creates an all-dead board with the specified dimensions
func NewBoard(rows, cols int) Board {
	b := make(Board, rows)
	for i := range b {
		b[i] = make([]bool, cols)
	}
	return b
}

// BoardFromValues converts an untyped grid, as produced by decoding a generic
// document, into a Board. Every cell must be a bool.
func BoardFromValues(values [][]any) (Board, error) {
	if values == nil {
		return nil, errors.Wrap(ErrInvalidBoard, "board is absent")
	}
	b := make(Board, len(values))
	for r, row := range values {
		b[r] = make([]bool, len(row))
		for c, v := range row {
			alive, ok := v.(bool)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidBoard, "cell (%d,%d) is %T %v, want bool", r, c, v, v)
			}
			b[r][c] = alive
		}
	}
	return b, nil
}

// DecodeBoard reads a JSON array of arrays of booleans.
func DecodeBoard(r io.Reader) (Board, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrapf(ErrInvalidBoard, "decode: %v", err)
	}
	if raw == nil {
		return nil, errors.Wrap(ErrInvalidBoard, "board is absent")
	}

	values := make([][]any, len(raw))
	for i, msg := range raw {
		if err := json.Unmarshal(msg, &values[i]); err != nil {
			return nil, errors.Wrapf(ErrInvalidBoard, "row %d: %v", i, err)
		}
	}
	return BoardFromValues(values)
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = append(make([]bool, 0, len(row)), row...)
	}
	return out
}

// Rows returns the number of rows.
func (b Board) Rows() int { return len(b) }

// Contains reports whether (row, col) addresses an existing cell.
func (b Board) Contains(row, col int) bool {
	return row >= 0 && row < len(b) && col >= 0 && col < len(b[row])
}

// Get returns the state of a cell; cells outside the board are dead.
func (b Board) Get(row, col int) bool {
	return b.Contains(row, col) && b[row][col]
}

// Set sets a cell to alive (true) or dead (false); out-of-range writes are ignored.
func (b Board) Set(row, col int, alive bool) {
	if b.Contains(row, col) {
		b[row][col] = alive
	}
}

// Population returns the total number of living cells
func (b Board) Population() (count int) {
	for _, row := range b {
		for _, alive := range row {
			if alive {
				count++
			}
		}
	}
	return
}

// Equal reports whether both boards have the same shape and cells.
func (b Board) Equal(other Board) bool {
	if len(b) != len(other) {
		return false
	}
	for r := range b {
		if len(b[r]) != len(other[r]) {
			return false
		}
		for c := range b[r] {
			if b[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// Hash returns an MD5 digest of the board's shape and cells.
func (b Board) Hash() string {
	h := md5.New()
	for _, row := range b {
		for _, alive := range row {
			if alive {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
		// row terminator keeps ragged shapes distinct
		h.Write([]byte{2})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Randomize sets each cell alive with probability density.
func (b Board) Randomize(rng *rand.Rand, density float64) {
	for r := range b {
		for c := range b[r] {
			b[r][c] = rng.Float64() < density
		}
	}
}

// AddGlider stamps a glider with its top-left corner at (row, col).
func (b Board) AddGlider(row, col int) {
	pattern := [][]bool{
		{false, true, false},
		{false, false, true},
		{true, true, true},
	}
	b.stamp(row, col, pattern)
}

// AddBlinker stamps a horizontal blinker starting at (row, col).
func (b Board) AddBlinker(row, col int) {
	b.stamp(row, col, [][]bool{{true, true, true}})
}

func (b Board) stamp(row, col int, pattern [][]bool) {
	for dr, cells := range pattern {
		for dc, alive := range cells {
			b.Set(row+dr, col+dc, alive)
		}
	}
}

// RandomBoard builds a board seeded with a few gliders and blinkers on top of
// random noise at the given density.
func RandomBoard(rows, cols int, density float64, rng *rand.Rand) Board {
	b := NewBoard(rows, cols)
	b.Randomize(rng, density)

	if cols >= 10 && rows >= 10 {
		b.AddGlider(5, 5)
		if cols >= 20 && rows >= 15 {
			b.AddGlider(5, cols-8)
		}

		b.AddBlinker(rows/4, cols/4)
		if cols >= 30 {
			b.AddBlinker(3*rows/4, 3*cols/4)
		}
	}
	return b
}
