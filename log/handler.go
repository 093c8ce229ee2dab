package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
)

// NewTerminalHandlerWithLevel returns a text handler writing to w that drops
// records below lvl. With useColor the level tag is colorized.
func NewTerminalHandlerWithLevel(w io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String(slog.TimeKey, a.Value.Time().Format("01-02|15:04:05.000"))
			case slog.LevelKey:
				l, _ := a.Value.Any().(slog.Level)
				s := LevelAlignedString(l)
				if useColor {
					s = colorize(l, s)
				}
				return slog.String(slog.LevelKey, s)
			}
			return a
		},
	}
	return slog.NewTextHandler(w, opts)
}

func colorize(l slog.Level, s string) string {
	var code string
	switch {
	case l >= LevelCrit:
		code = "35"
	case l >= slog.LevelError:
		code = "31"
	case l >= slog.LevelWarn:
		code = "33"
	case l >= slog.LevelInfo:
		code = "32"
	default:
		code = "36"
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

type discardHandler struct{}

// DiscardHandler returns a handler that drops every record.
func DiscardHandler() slog.Handler {
	return discardHandler{}
}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

func formatRecords(records []slog.Record) ([]byte, error) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: levelMaxVerbosity,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if len(groups) == 0 && a.Key == slog.LevelKey {
				l, _ := a.Value.Any().(slog.Level)
				return slog.String(slog.LevelKey, strings.TrimSpace(LevelAlignedString(l)))
			}
			return a
		},
	})
	for _, r := range records {
		if err := h.Handle(context.Background(), r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
