package slog

import (
	"context"
	stdslog "log/slog"
	"os"
	"strings"

	"github.com/unkn0wn-root/unihub/logger"
)

var _ logger.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f logger.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f logger.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f logger.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f logger.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

// New returns a text handler logger on stderr. Unknown levels fall back to info.
func New(level string) Logger {
	var lvl stdslog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = stdslog.LevelDebug
	case "warn", "warning":
		lvl = stdslog.LevelWarn
	case "error":
		lvl = stdslog.LevelError
	default:
		lvl = stdslog.LevelInfo
	}
	h := stdslog.NewTextHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
	return Logger{L: stdslog.New(h)}
}

func attrs(f logger.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
