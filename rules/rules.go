package rules

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	// MinNeighbors and MaxNeighbors bound the neighbour count of a cell on a
	// two-dimensional Moore neighbourhood.
	MinNeighbors = 0
	MaxNeighbors = 8

	RuleLive      = "live"
	RuleReproduce = "reproduce"
)

// ErrInvalidRules is returned when a rule set is absent or lacks one of its members.
var ErrInvalidRules = errors.New("invalid rules")

// RuleSet is the caller-facing shape of a rule set. A nil member means the
// member was not supplied; an empty non-nil member is a valid, empty rule.
type RuleSet struct {
	Live      []int `json:"live"`
	Reproduce []int `json:"reproduce"`
}

// Conway returns the standard B3/S23 rule set.
func Conway() *RuleSet {
	return &RuleSet{
		Live:      []int{2, 3},
		Reproduce: []int{3},
	}
}

// Warning describes a rule value that was dropped while compiling or decoding
// a rule set.
type Warning struct {
	Rule   string
	Value  any
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: dropped %v: %s", w.Rule, w.Value, w.Reason)
}

// WarningFunc receives non-fatal rule diagnostics.
type WarningFunc func(Warning)

func (fn WarningFunc) emit(w Warning) {
	if fn != nil {
		fn(w)
	}
}

// Rules is a compiled rule set: membership tables indexed by neighbour count.
type Rules struct {
	live      [MaxNeighbors + 1]bool
	reproduce [MaxNeighbors + 1]bool
}

// Compile validates rs and filters out-of-range values, reporting each
// dropped value to warn.
func Compile(rs *RuleSet, warn WarningFunc) (Rules, error) {
	var r Rules
	if rs == nil {
		return r, errors.Wrap(ErrInvalidRules, "rule set is absent")
	}
	if rs.Live == nil {
		return r, errors.Wrapf(ErrInvalidRules, "missing %q member", RuleLive)
	}
	if rs.Reproduce == nil {
		return r, errors.Wrapf(ErrInvalidRules, "missing %q member", RuleReproduce)
	}

	fill(&r.live, RuleLive, rs.Live, warn)
	fill(&r.reproduce, RuleReproduce, rs.Reproduce, warn)
	return r, nil
}

func fill(table *[MaxNeighbors + 1]bool, name string, values []int, warn WarningFunc) {
	for _, v := range values {
		if v < MinNeighbors || v > MaxNeighbors {
			warn.emit(Warning{
				Rule:   name,
				Value:  v,
				Reason: fmt.Sprintf("outside [%d,%d]", MinNeighbors, MaxNeighbors),
			})
			continue
		}
		table[v] = true
	}
}

// Survives reports whether a live cell with the given neighbour count stays alive.
func (r Rules) Survives(neighbors int) bool {
	return inRange(neighbors) && r.live[neighbors]
}

// Born reports whether a dead cell with the given neighbour count comes alive.
func (r Rules) Born(neighbors int) bool {
	return inRange(neighbors) && r.reproduce[neighbors]
}

// Next returns the state of a cell in the following generation.
func (r Rules) Next(alive bool, neighbors int) bool {
	if alive {
		return r.Survives(neighbors)
	}
	return r.Born(neighbors)
}

// Live returns the sorted survival counts.
func (r Rules) Live() []int { return members(r.live) }

// Reproduce returns the sorted birth counts.
func (r Rules) Reproduce() []int { return members(r.reproduce) }

// RuleSet converts the compiled rules back into their input shape.
func (r Rules) RuleSet() *RuleSet {
	return &RuleSet{Live: r.Live(), Reproduce: r.Reproduce()}
}

// String renders the rules in B/S notation, e.g. "B3/S23".
func (r Rules) String() string {
	var sb strings.Builder
	sb.WriteByte('B')
	for _, n := range r.Reproduce() {
		sb.WriteByte(byte('0' + n))
	}
	sb.WriteString("/S")
	for _, n := range r.Live() {
		sb.WriteByte(byte('0' + n))
	}
	return sb.String()
}

func members(table [MaxNeighbors + 1]bool) []int {
	out := make([]int, 0, len(table))
	for n, ok := range table {
		if ok {
			out = append(out, n)
		}
	}
	return out
}

func inRange(n int) bool {
	return n >= MinNeighbors && n <= MaxNeighbors
}
