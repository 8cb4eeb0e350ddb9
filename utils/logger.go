package utils

import (
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-automaton/rules"
)

const (
	LogFormatLogfmt = "logfmt"
	LogFormatJSON   = "json"
)

// NewLogger builds a synchronised logger writing in the given format, with
// timestamp and caller on every line.
func NewLogger(w io.Writer, format string) (log.Logger, error) {
	var logger log.Logger
	switch strings.ToLower(format) {
	case "", LogFormatLogfmt:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case LogFormatJSON:
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, errors.Errorf("[NewLogger] unknown log format %q", format)
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller), nil
}

// RuleWarningLogger reports dropped rule values at warn level.
func RuleWarningLogger(logger log.Logger) rules.WarningFunc {
	return func(w rules.Warning) {
		level.Warn(logger).Log("msg", "dropped rule value", "rule", w.Rule, "value", w.Value, "reason", w.Reason)
	}
}
