package model

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-automaton/rules"
)

func mustParse(t *testing.T, s string) Board {
	t.Helper()
	b, err := ParseBoard(s)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	return b
}

func mustEngine(t *testing.T, b Board, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(b, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// checkCounts compares the maintained counts with a brute-force recount.
func checkCounts(t *testing.T, e *Engine) {
	t.Helper()
	for r, row := range e.board {
		for c := range row {
			want := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if (dr != 0 || dc != 0) && e.board.Get(r+dr, c+dc) {
						want++
					}
				}
			}
			if got := e.NeighbourCount(r, c); got != want {
				t.Fatalf("generation %d: count(%d,%d) = %d, want %d", e.Generation(), r, c, got, want)
			}
		}
	}
}

func TestBlinkerOscillates(t *testing.T) {
	start := mustParse(t, "- + -\n- + -\n- + -\n")
	e := mustEngine(t, start)

	e.Advance()
	if !e.HasChanged() {
		t.Fatalf("expected change after first advance")
	}
	want := mustParse(t, "- - -\n+ + +\n- - -\n")
	if !e.Board().Equal(want) {
		t.Fatalf("after first advance got\n%s", e)
	}

	e.Advance()
	if !e.HasChanged() {
		t.Fatalf("expected change after second advance")
	}
	if !e.Board().Equal(start) {
		t.Fatalf("after second advance got\n%s", e)
	}
	checkCounts(t, e)
}

func TestEdgeMidpointsAreStill(t *testing.T) {
	start := mustParse(t, "- + -\n+ - +\n- + -\n")
	e := mustEngine(t, start)

	for i := 0; i < 3; i++ {
		e.Advance()
		if e.HasChanged() {
			t.Fatalf("advance %d changed a still life:\n%s", i, e)
		}
	}
	if !e.Board().Equal(start) {
		t.Fatalf("board drifted:\n%s", e)
	}
}

func TestSingleCellDies(t *testing.T) {
	e := mustEngine(t, mustParse(t, "- - -\n- + -\n- - -\n"))
	if e.IsExtinct() {
		t.Fatalf("board with one live cell reported extinct")
	}
	e.Advance()
	if !e.IsExtinct() {
		t.Fatalf("isolated cell survived:\n%s", e)
	}
	if !e.HasChanged() {
		t.Fatalf("expected HasChanged after the cell died")
	}
	checkCounts(t, e)
}

func TestEmptyBoardStaysEmpty(t *testing.T) {
	e := mustEngine(t, NewBoard(4, 5))
	for i := 0; i < 5; i++ {
		e.Advance()
		if e.HasChanged() {
			t.Fatalf("advance %d changed an empty board", i)
		}
		if !e.IsExtinct() {
			t.Fatalf("empty board came alive")
		}
	}
	if e.Generation() != 5 {
		t.Fatalf("Generation() = %d, want 5", e.Generation())
	}
}

func TestEdgeClamping(t *testing.T) {
	full := NewBoard(3, 4)
	for r := range full {
		for c := range full[r] {
			full[r][c] = true
		}
	}
	e := mustEngine(t, full)

	tests := []struct {
		row, col, want int
	}{
		{0, 0, 3},
		{0, 3, 3},
		{2, 0, 3},
		{2, 3, 3},
		{0, 1, 5},
		{1, 0, 5},
		{2, 2, 5},
		{1, 3, 5},
		{1, 1, 8},
		{1, 2, 8},
		{-1, 0, 0},
		{0, 4, 0},
	}
	for _, tt := range tests {
		if got := e.NeighbourCount(tt.row, tt.col); got != tt.want {
			t.Errorf("NeighbourCount(%d,%d) = %d, want %d", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestCountsStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tests := []struct {
		name  string
		board Board
		rs    *rules.RuleSet
	}{
		{"conway", RandomBoard(20, 30, 0.35, rng), rules.Conway()},
		{"highlife", RandomBoard(17, 9, 0.5, rng), &rules.RuleSet{Live: []int{2, 3}, Reproduce: []int{3, 6}}},
		{"seeds", RandomBoard(12, 12, 0.1, rng), &rules.RuleSet{Live: []int{}, Reproduce: []int{2}}},
		{"ragged", Board{{true, true, true}, {true}, {false, true, true, true}, {}, {true, true}}, rules.Conway()},
		{"large", RandomBoard(80, 90, 0.3, rng), rules.Conway()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, tt.board, WithRules(tt.rs))
			checkCounts(t, e)
			for i := 0; i < 25; i++ {
				e.Advance()
				checkCounts(t, e)
			}
		})
	}
}

func TestAdvanceMatchesFullRecompute(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := RandomBoard(15, 15, 0.4, rng)
	e := mustEngine(t, b)

	ref := b.Clone()
	for gen := 0; gen < 30; gen++ {
		next := NewBoard(len(ref), len(ref[0]))
		for r := range ref {
			for c := range ref[r] {
				n := 0
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						if (dr != 0 || dc != 0) && ref.Get(r+dr, c+dc) {
							n++
						}
					}
				}
				next[r][c] = (ref[r][c] && (n == 2 || n == 3)) || (!ref[r][c] && n == 3)
			}
		}
		e.Advance()
		if e.HasChanged() == next.Equal(ref) {
			t.Fatalf("generation %d: HasChanged() = %v inconsistent with board diff", gen, e.HasChanged())
		}
		ref = next
		if !e.Board().Equal(ref) {
			t.Fatalf("generation %d diverged:\n%s\nwant\n%s", gen, e, ref)
		}
	}
}

func TestChangesListsFlippedCells(t *testing.T) {
	e := mustEngine(t, mustParse(t, "- + -\n- + -\n- + -\n"))
	if len(e.Changes()) != 0 {
		t.Fatalf("expected no changes before the first advance")
	}
	e.Advance()

	want := map[Position]bool{
		{0, 1}: true, {2, 1}: true,
		{1, 0}: true, {1, 2}: true,
	}
	got := e.Changes()
	if len(got) != len(want) {
		t.Fatalf("Changes() = %v, want %d positions", got, len(want))
	}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected change at %v", p)
		}
	}
}

func TestAssignBoardResets(t *testing.T) {
	e := mustEngine(t, mustParse(t, "- + -\n- + -\n- + -\n"))
	e.Advance()
	if !e.HasChanged() {
		t.Fatalf("expected change")
	}

	next := mustParse(t, "+ + - -\n+ + - -\n")
	if err := e.AssignBoard(next); err != nil {
		t.Fatalf("AssignBoard: %v", err)
	}
	if e.HasChanged() {
		t.Fatalf("HasChanged() true after AssignBoard")
	}
	if e.Generation() != 0 {
		t.Fatalf("Generation() = %d after AssignBoard", e.Generation())
	}
	if !e.Board().Equal(next) {
		t.Fatalf("board not replaced:\n%s", e)
	}
	checkCounts(t, e)
}

func TestAssignBoardCopies(t *testing.T) {
	src := mustParse(t, "- - -\n+ + +\n- - -\n")
	e := mustEngine(t, src)

	src[0][0] = true
	src[1][1] = false
	if e.Board().Get(0, 0) || !e.Board().Get(1, 1) {
		t.Fatalf("engine state follows caller's board:\n%s", e)
	}
	checkCounts(t, e)

	out := e.Board()
	out[2][2] = true
	if e.Board().Get(2, 2) {
		t.Fatalf("Board() exposes internal state")
	}
}

func TestAssignBoardRejectsAbsent(t *testing.T) {
	start := mustParse(t, "+ +\n+ +\n")
	e := mustEngine(t, start)

	err := e.AssignBoard(nil)
	if !errors.Is(err, ErrInvalidBoard) {
		t.Fatalf("AssignBoard(nil) err = %v, want ErrInvalidBoard", err)
	}
	if !e.Board().Equal(start) {
		t.Fatalf("failed AssignBoard altered the board")
	}
	checkCounts(t, e)

	if _, err := NewEngine(nil); !errors.Is(err, ErrInvalidBoard) {
		t.Fatalf("NewEngine(nil) err = %v, want ErrInvalidBoard", err)
	}
}

func TestAssignRulesLeavesBoardAlone(t *testing.T) {
	e := mustEngine(t, mustParse(t, "- + -\n- + -\n- + -\n"))
	e.Advance()
	before := e.Board()

	if err := e.AssignRules(&rules.RuleSet{Live: []int{1}, Reproduce: []int{1, 2}}); err != nil {
		t.Fatalf("AssignRules: %v", err)
	}
	if !e.HasChanged() {
		t.Fatalf("AssignRules reset HasChanged")
	}
	if !e.Board().Equal(before) {
		t.Fatalf("AssignRules changed the board")
	}
	checkCounts(t, e)
	if got := e.Rules().String(); got != "B12/S1" {
		t.Fatalf("Rules() = %s, want B12/S1", got)
	}
}

func TestRulesValidation(t *testing.T) {
	b := NewBoard(2, 2)

	if _, err := NewEngine(b, WithRules(nil)); !errors.Is(err, rules.ErrInvalidRules) {
		t.Fatalf("nil rules err = %v, want ErrInvalidRules", err)
	}
	if _, err := NewEngine(b, WithRules(&rules.RuleSet{Live: []int{2, 3}})); !errors.Is(err, rules.ErrInvalidRules) {
		t.Fatalf("missing reproduce err = %v, want ErrInvalidRules", err)
	}

	e := mustEngine(t, b)
	if err := e.AssignRules(&rules.RuleSet{Reproduce: []int{3}}); !errors.Is(err, rules.ErrInvalidRules) {
		t.Fatalf("missing live err = %v, want ErrInvalidRules", err)
	}
	if got := e.Rules().String(); got != "B3/S23" {
		t.Fatalf("failed AssignRules replaced rules with %s", got)
	}
}

func TestAssignRulesDropsOutOfRange(t *testing.T) {
	var warnings []rules.Warning
	e := mustEngine(t, NewBoard(1, 1), WithWarningFunc(func(w rules.Warning) {
		warnings = append(warnings, w)
	}))

	err := e.AssignRules(&rules.RuleSet{Live: []int{9, 2, -1, 3}, Reproduce: []int{3}})
	if err != nil {
		t.Fatalf("AssignRules: %v", err)
	}
	if got := e.Rules().Live(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("Live() = %v, want [2 3]", got)
	}
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	if warnings[0].Value != 9 || warnings[1].Value != -1 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}

func TestQueriesAreIdempotent(t *testing.T) {
	e := mustEngine(t, mustParse(t, "+ - +\n- + -\n"))
	e.Advance()

	s1, s2 := e.String(), e.String()
	x1, x2 := e.IsExtinct(), e.IsExtinct()
	c1, c2 := e.HasChanged(), e.HasChanged()
	if s1 != s2 || x1 != x2 || c1 != c2 {
		t.Fatalf("queries not idempotent")
	}
	if !e.Board().Equal(e.Board()) {
		t.Fatalf("Board() not idempotent")
	}
}

func BenchmarkAdvance(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	e, err := NewEngine(RandomBoard(256, 256, 0.3, rng))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Advance()
	}
}
