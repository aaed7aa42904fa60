package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

const (
	ansiReset = "\033[0m"
	ansiGrey  = "\033[90m"
	ansiRed   = "\033[31m"
	ansiAmber = "\033[33m"
	ansiCyan  = "\033[36m"
)

// lockedWriter serialises whole lines from handlers sharing one sink.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// consoleHandler renders one human-readable line per record:
//
//	2026-01-02T15:04:05Z INFO [request] component: message key=value
//
// component and request_id are lifted out of the attribute list into the
// line header. Attributes bound with WithAttrs are rendered once up front.
type consoleHandler struct {
	out    *lockedWriter
	level  *slog.LevelVar
	source bool
	color  bool

	groups    []string
	component string
	requestID string
	bound     []byte
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	component, requestID := h.component, h.requestID
	var tail []byte
	record.Attrs(func(attr slog.Attr) bool {
		tail = h.appendAttr(tail, h.groups, attr, &component, &requestID)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	line := make([]byte, 0, 96+len(h.bound)+len(tail))
	line = ts.UTC().AppendFormat(line, time.RFC3339)
	line = append(line, ' ')
	line = append(line, h.levelLabel(record.Level)...)
	line = append(line, ' ')
	if requestID != "" {
		line = append(line, '[')
		line = append(line, requestID...)
		line = append(line, "] "...)
	}
	if component != "" {
		line = append(line, component...)
		line = append(line, ": "...)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line = append(line, msg...)
	if h.source {
		if src := record.Source(); src != nil && src.File != "" {
			line = fmt.Appendf(line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	line = append(line, h.bound...)
	line = append(line, tail...)
	line = append(line, '\n')

	_, err := h.out.Write(line)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.bound = append([]byte(nil), h.bound...)
	for _, attr := range attrs {
		next.bound = next.appendAttr(next.bound, h.groups, attr, &next.component, &next.requestID)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// appendAttr writes " key=value" for attr, flattening groups into dotted
// keys. Top-level component and request_id fill the header slots instead,
// first value wins.
func (h *consoleHandler) appendAttr(dst []byte, groups []string, attr slog.Attr, component, requestID *string) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = h.appendAttr(dst, inner, member, component, requestID)
		}
		return dst
	}
	if len(groups) == 0 {
		switch attr.Key {
		case FieldComponent:
			if *component == "" {
				*component = attr.Value.String()
			}
			return dst
		case FieldRequestID:
			if *requestID == "" {
				*requestID = attr.Value.String()
			}
			return dst
		}
	}
	if attr.Key == "" {
		return dst
	}

	dst = append(dst, ' ')
	for _, g := range groups {
		dst = append(dst, g...)
		dst = append(dst, '.')
	}
	dst = append(dst, attr.Key...)
	dst = append(dst, '=')
	return appendValue(dst, attr.Value)
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	var label, color string
	switch {
	case level >= slog.LevelError:
		label, color = "ERROR", ansiRed
	case level >= slog.LevelWarn:
		label, color = "WARN", ansiAmber
	case level >= slog.LevelInfo:
		label, color = "INFO", ansiCyan
	default:
		label, color = "DEBUG", ansiGrey
	}
	if h.color {
		return color + label + ansiReset
	}
	return label
}

func appendValue(dst []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindBool:
		return strconv.AppendBool(dst, v.Bool())
	case slog.KindInt64:
		return strconv.AppendInt(dst, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(dst, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(dst, v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return append(dst, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(dst, time.RFC3339)
	}

	var s string
	if err, ok := v.Any().(error); ok && v.Kind() == slog.KindAny {
		s = err.Error()
	} else if v.Kind() == slog.KindAny {
		s = fmt.Sprint(v.Any())
	} else {
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, needsQuote) {
		return strconv.AppendQuote(dst, s)
	}
	return append(dst, s...)
}

func needsQuote(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || r == '=' || r == '"'
}
