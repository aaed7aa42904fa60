package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"videoconverter/internal/logging"
	"videoconverter/internal/services"
)

const (
	defaultWaitDelay    = 5 * time.Second
	defaultProbeTimeout = 5 * time.Second
	// DefaultVersionFlag is the argument Probe passes when none is given.
	DefaultVersionFlag = "-version"
)

// Result captures the outcome of one tool invocation.
type Result struct {
	Tool      string
	Args      []string
	ExitCode  int
	Stdout    []byte
	Stderr    []byte
	Succeeded bool
	// Started is false when the process could not be spawned at all.
	Started  bool
	TimedOut bool
	Canceled bool
	Message  string
	Duration time.Duration
}

// Err converts an unsuccessful result into a classified error, or nil.
func (r Result) Err() error {
	if r.Succeeded {
		return nil
	}
	marker := services.ErrExternalTool
	switch {
	case r.TimedOut:
		marker = services.ErrTimeout
	case r.Canceled:
		marker = services.ErrTransient
	case !r.Started:
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "", r.Tool, r.Message, nil)
}

// StderrTail returns at most the last maxLines non-empty lines of stderr.
func (r Result) StderrTail(maxLines int) string {
	lines := strings.Split(strings.TrimSpace(string(r.Stderr)), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Invoker spawns external tools.
type Invoker struct {
	logger    *slog.Logger
	waitDelay time.Duration
	env       []string
}

// Option customises an Invoker.
type Option func(*Invoker)

// WithWaitDelay bounds how long Run waits for output pipes to drain after the
// process has been killed.
func WithWaitDelay(d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.waitDelay = d
		}
	}
}

// WithEnv appends KEY=VALUE entries to the inherited environment.
func WithEnv(env ...string) Option {
	return func(i *Invoker) {
		i.env = append(i.env, env...)
	}
}

// New builds an Invoker.
func New(logger *slog.Logger, opts ...Option) *Invoker {
	inv := &Invoker{
		logger:    logging.NewComponentLogger(logger, "toolexec"),
		waitDelay: defaultWaitDelay,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Run executes tool with args, without a shell. A non-positive timeout means
// only ctx bounds the run.
func (i *Invoker) Run(ctx context.Context, tool string, args []string, timeout time.Duration) Result {
	result := Result{Tool: tool, Args: append([]string(nil), args...), ExitCode: -1}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = i.waitDelay
	if len(i.env) > 0 {
		cmd.Env = append(cmd.Environ(), i.env...)
	}
	configureProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(start)
		if ctxErr := runCtx.Err(); ctxErr != nil {
			i.classifyContext(ctx, runCtx, &result, timeout)
			return result
		}
		result.Message = describeSpawnError(tool, err)
		i.logger.Debug("tool spawn failed",
			logging.String("tool", tool),
			logging.Error(err),
		)
		return result
	}
	result.Started = true

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runCtx.Err() != nil {
		i.classifyContext(ctx, runCtx, &result, timeout)
	} else if waitErr != nil || result.ExitCode != 0 {
		result.Message = describeExit(tool, result, waitErr)
	} else {
		result.Succeeded = true
	}

	i.logger.Debug("tool finished",
		logging.String("tool", tool),
		slog.Int("exit_code", result.ExitCode),
		slog.Bool("succeeded", result.Succeeded),
		slog.Duration("duration", result.Duration),
		slog.Int("stderr_bytes", len(result.Stderr)),
	)
	return result
}

func (i *Invoker) classifyContext(parent, runCtx context.Context, result *Result, timeout time.Duration) {
	if parent.Err() != nil {
		result.Canceled = true
		result.Message = fmt.Sprintf("%s cancelled: %v", result.Tool, context.Cause(parent))
		return
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.Message = fmt.Sprintf("%s timed out after %s", result.Tool, timeout)
		return
	}
	result.Canceled = true
	result.Message = fmt.Sprintf("%s cancelled", result.Tool)
}

// Probe reports whether tool starts and exits zero when asked for its
// version. It never blocks longer than timeout (5s when non-positive).
func (i *Invoker) Probe(ctx context.Context, tool string, timeout time.Duration, args ...string) bool {
	if strings.TrimSpace(tool) == "" {
		return false
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	if len(args) == 0 {
		args = []string{DefaultVersionFlag}
	}
	return i.Run(ctx, tool, args, timeout).Succeeded
}

func describeSpawnError(tool string, err error) string {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("%s not found; install it or fix the configured path", tool)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("permission denied executing %s", tool)
	default:
		return fmt.Sprintf("failed to start %s: %v", tool, err)
	}
}

func describeExit(tool string, result Result, waitErr error) string {
	if result.ExitCode >= 0 {
		if tail := result.StderrTail(1); tail != "" {
			return fmt.Sprintf("%s exited with code %d: %s", tool, result.ExitCode, tail)
		}
		return fmt.Sprintf("%s exited with code %d", tool, result.ExitCode)
	}
	return fmt.Sprintf("%s terminated abnormally: %v", tool, waitErr)
}
