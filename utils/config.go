package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-automaton/rules"
)

// Config holds the configuration for a run
type Config struct {
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	TickInterval   Duration        `json:"tick_interval"`
	MaxGenerations int             `json:"max_generations"`
	RandomDensity  float64         `json:"random_density"`
	Seed           int64           `json:"seed"`
	Rules          json.RawMessage `json:"rules,omitempty"`
	Rule           string          `json:"rule,omitempty"`
	BoardFile      string          `json:"board_file,omitempty"`
	Reseed         bool            `json:"reseed"`
	CycleWindow    int             `json:"cycle_window"`
	Headless       bool            `json:"headless"`
	LogFormat      string          `json:"log_format"`
}

// Duration decodes either a Go duration string ("150ms") or a number of
// nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "invalid duration %q", s)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Width:          60,
		Height:         30,
		TickInterval:   Duration(150 * time.Millisecond),
		MaxGenerations: 1000,
		RandomDensity:  0.15,
		Seed:           time.Now().UnixNano(),
		Reseed:         false,
		CycleWindow:    3,
		LogFormat:      LogFormatLogfmt,
	}
}

// LoadConfig loads configuration from JSON file
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	return config, nil
}

// RuleSet resolves the configured rules: an explicit rule set wins over B/S
// notation, and Conway's rules apply when neither is given. Non-integer
// values in an explicit rule set are reported to warn and dropped.
func (c Config) RuleSet(warn rules.WarningFunc) (*rules.RuleSet, error) {
	if len(c.Rules) > 0 {
		rs, err := rules.Decode(bytes.NewReader(c.Rules), warn)
		if err != nil {
			return nil, errors.Wrap(err, "[Config.RuleSet] failed to decode rules")
		}
		return rs, nil
	}
	if c.Rule != "" {
		rs, err := rules.Parse(c.Rule)
		if err != nil {
			return nil, errors.Wrap(err, "[Config.RuleSet] failed to parse rule")
		}
		return rs, nil
	}
	return rules.Conway(), nil
}
