package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"videoconverter/internal/config"
)

// LogFileName is the file written inside paths.log_dir when one is configured.
const LogFileName = "videoconverter.log"

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
	// Color forces ANSI level colouring on or off for the console format.
	// When nil, colour follows whether a terminal sink is attached.
	Color *bool
}

// New builds a logger writing to every configured sink. Records passed to
// the *Context methods pick up request fields from the context.
func New(opts Options) (*slog.Logger, error) {
	level := ParseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errorOutputs := opts.ErrorOutputPaths
	if len(errorOutputs) == 0 {
		errorOutputs = []string{"stderr"}
	}

	sinks := newSinkSet()
	for _, name := range append(append([]string(nil), outputs...), errorOutputs...) {
		if err := sinks.add(name); err != nil {
			return nil, err
		}
	}

	// Caller locations are noise at info level and invaluable at debug.
	withSource := opts.Development || level <= slog.LevelDebug

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "json":
		handler = slog.NewJSONHandler(sinks.writer(), &slog.HandlerOptions{
			Level:       levelVar,
			AddSource:   withSource,
			ReplaceAttr: jsonAttr,
		})
	case "", "console":
		color := sinks.tty
		if opts.Color != nil {
			color = *opts.Color
		}
		handler = &consoleHandler{
			out:    &lockedWriter{w: sinks.writer()},
			level:  levelVar,
			source: withSource,
			color:  color,
		}
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(newContextHandler(handler)), nil
}

// NewFromConfig creates a logger from the [logging] section, adding a log
// file when paths.log_dir is set.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	opts := Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if dir := cfg.Paths.LogDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file := filepath.Join(dir, LogFileName)
		opts.OutputPaths = []string{"stdout", file}
		opts.ErrorOutputPaths = []string{"stderr", file}
	}
	return New(opts)
}

// ParseLevel maps a configured level name onto slog. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sinkSet collects the distinct writers a logger fans out to.
type sinkSet struct {
	seen    map[string]bool
	writers []io.Writer
	tty     bool
}

func newSinkSet() *sinkSet {
	return &sinkSet{seen: map[string]bool{}}
}

func (s *sinkSet) add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || s.seen[name] {
		return nil
	}
	s.seen[name] = true

	switch name {
	case "stdout":
		s.writers = append(s.writers, os.Stdout)
		s.tty = s.tty || isTerminal(os.Stdout)
	case "stderr":
		// stdout and stderr usually share a terminal; avoid printing twice.
		if s.seen["stdout"] {
			return nil
		}
		s.writers = append(s.writers, os.Stderr)
		s.tty = s.tty || isTerminal(os.Stderr)
	default:
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return fmt.Errorf("ensure log dir for %s: %w", name, err)
		}
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", name, err)
		}
		s.writers = append(s.writers, file)
	}
	return nil
}

func (s *sinkSet) writer() io.Writer {
	switch len(s.writers) {
	case 0:
		return os.Stdout
	case 1:
		return s.writers[0]
	default:
		return io.MultiWriter(s.writers...)
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func jsonAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}
