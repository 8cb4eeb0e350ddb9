package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

const (
	// LiveGlyph and DeadGlyph are used by String and ParseBoard.
	LiveGlyph = "+ "
	DeadGlyph = "- "
	RowEnd    = "\n"

	gridPosBlock = "██"
	gridPosEmpty = "  "

	clearCmd = "clear"
)

// Format renders the board one row per line using the supplied glyphs.
func (b Board) Format(live, dead, rowEnd string) string {
	var sb strings.Builder
	for _, row := range b {
		for _, alive := range row {
			if alive {
				sb.WriteString(live)
			} else {
				sb.WriteString(dead)
			}
		}
		sb.WriteString(rowEnd)
	}
	return sb.String()
}

func (b Board) String() string {
	return b.Format(LiveGlyph, DeadGlyph, RowEnd)
}

// ParseBoard reads the glyph form produced by String: one row per line, '+'
// for live and '-' for dead, whitespace ignored. Blank lines are empty rows.
func ParseBoard(s string) (Board, error) {
	var b Board
	sc := bufio.NewScanner(strings.NewReader(s))
	for r := 0; sc.Scan(); r++ {
		row := []bool{}
		for c, ch := range sc.Text() {
			switch ch {
			case '+':
				row = append(row, true)
			case '-':
				row = append(row, false)
			case ' ', '\t', '\r':
			default:
				return nil, errors.Wrapf(ErrInvalidBoard, "line %d offset %d: unexpected %q", r, c, ch)
			}
		}
		b = append(b, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "[ParseBoard] failed to scan input")
	}
	if b == nil {
		b = Board{}
	}
	return b, nil
}

// TerminalRenderer implements basic terminal rendering
type TerminalRenderer struct {
	Out io.Writer
}

// NewTerminalRenderer returns a renderer writing to stdout.
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{Out: os.Stdout}
}

// Display renders the board to the terminal
func (r *TerminalRenderer) Display(b Board) error {
	_, err := io.WriteString(r.Out, b.Format(gridPosBlock, gridPosEmpty, RowEnd))
	return err
}

// Clear clears the terminal screen
func (r *TerminalRenderer) Clear() {
	cmd := exec.Command(clearCmd)
	cmd.Stdout = r.Out
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(r.Out, "Error clearing terminal:", err)
	}
}
