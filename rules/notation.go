package rules

import (
	"strings"

	"github.com/pkg/errors"
)

// Parse reads a rule set written in B/S notation such as "B3/S23" or
// "S23/B36". Letters are case-insensitive and the halves may come in either
// order. Digits are not range checked here; Compile drops those above 8.
func Parse(notation string) (*RuleSet, error) {
	halves := strings.Split(strings.TrimSpace(notation), "/")
	if len(halves) != 2 {
		return nil, errors.Wrapf(ErrInvalidRules, "rulestring %q: want B<digits>/S<digits>", notation)
	}

	rs := &RuleSet{}
	for _, half := range halves {
		if half == "" {
			return nil, errors.Wrapf(ErrInvalidRules, "rulestring %q: empty half", notation)
		}
		counts, err := digits(half[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "rulestring %q", notation)
		}
		switch half[0] {
		case 'B', 'b':
			if rs.Reproduce != nil {
				return nil, errors.Wrapf(ErrInvalidRules, "rulestring %q: duplicate B", notation)
			}
			rs.Reproduce = counts
		case 'S', 's':
			if rs.Live != nil {
				return nil, errors.Wrapf(ErrInvalidRules, "rulestring %q: duplicate S", notation)
			}
			rs.Live = counts
		default:
			return nil, errors.Wrapf(ErrInvalidRules, "rulestring %q: unknown prefix %q", notation, half[0])
		}
	}
	return rs, nil
}

func digits(s string) ([]int, error) {
	out := make([]int, 0, len(s))
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return nil, errors.Wrapf(ErrInvalidRules, "unexpected character %q", ch)
		}
		out = append(out, int(ch-'0'))
	}
	return out, nil
}
