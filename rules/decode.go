package rules

import (
	"encoding/json"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Decode reads a {"live": [...], "reproduce": [...]} document. Values that
// are not integers are dropped and reported to warn; a missing member or a
// member that is not an array fails with ErrInvalidRules.
func Decode(r io.Reader, warn WarningFunc) (*RuleSet, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(ErrInvalidRules, "decode: %v", err)
	}
	if doc == nil {
		return nil, errors.Wrap(ErrInvalidRules, "rule set is absent")
	}

	live, err := member(doc, RuleLive, warn)
	if err != nil {
		return nil, err
	}
	reproduce, err := member(doc, RuleReproduce, warn)
	if err != nil {
		return nil, err
	}
	return &RuleSet{Live: live, Reproduce: reproduce}, nil
}

func member(doc map[string]any, name string, warn WarningFunc) ([]int, error) {
	raw, ok := doc[name]
	if !ok || raw == nil {
		return nil, errors.Wrapf(ErrInvalidRules, "missing %q member", name)
	}
	values, ok := raw.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidRules, "%q must be an array, got %T", name, raw)
	}

	out := make([]int, 0, len(values))
	for _, v := range values {
		n, ok := integer(v)
		if !ok {
			warn.emit(Warning{Rule: name, Value: v, Reason: "not an integer"})
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// integer accepts JSON numbers with no fractional part, so 3 and 3.0 are
// both the integer 3.
func integer(v any) (int, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := num.Int64(); err == nil {
		return int(i), true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// Saturate huge integers; Compile drops them as out of range either way.
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}
