package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"videoconverter/internal/logging"
	"videoconverter/internal/services"
)

const (
	defaultAttempts     = 3
	defaultRetryDelay   = 5 * time.Second
	defaultLockInterval = 250 * time.Millisecond
)

// Dependency names a file that must exist at Path before it can be used.
type Dependency struct {
	Name       string
	URL        string
	Path       string
	Executable bool
}

// Snapshot is a point-in-time view of a Bootstrapper.
type Snapshot struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Source    string    `json:"source,omitempty"`
	State     State     `json:"-"`
	StateName string    `json:"state"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Bootstrapper drives acquisition of a single Dependency.
type Bootstrapper struct {
	dep         Dependency
	fetcher     Fetcher
	logger      *slog.Logger
	attempts    int
	delay       time.Duration
	alwaysReady bool
	sleep       func(context.Context, time.Duration) error
	now         func() time.Time

	mu      sync.Mutex
	runCtx  context.Context
	state   State
	lastErr error
	tries   int
	done    chan struct{}
	updated time.Time
}

// Option customises a Bootstrapper.
type Option func(*Bootstrapper)

// WithAttempts sets the total number of acquisition attempts.
func WithAttempts(n int) Option {
	return func(b *Bootstrapper) {
		if n > 0 {
			b.attempts = n
		}
	}
}

// WithRetryDelay sets the fixed pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(b *Bootstrapper) {
		if d >= 0 {
			b.delay = d
		}
	}
}

// WithSleeper overrides how retry delays are waited out (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(b *Bootstrapper) {
		if sleep != nil {
			b.sleep = sleep
		}
	}
}

// AlwaysReady marks the dependency as provisioned out of band. No file check
// or network access ever happens.
func AlwaysReady() Option {
	return func(b *Bootstrapper) {
		b.alwaysReady = true
	}
}

// New builds a Bootstrapper for dep.
func New(dep Dependency, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		dep:      dep,
		fetcher:  fetcher,
		attempts: defaultAttempts,
		delay:    defaultRetryDelay,
		sleep:    sleepContext,
		now:      time.Now,
		runCtx:   context.Background(),
		logger:   logging.NewComponentLogger(logger, "bootstrap").With(logging.String("dependency", dep.Name)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the dependency name.
func (b *Bootstrapper) Name() string {
	return b.dep.Name
}

// Path returns where the dependency lives once Ready.
func (b *Bootstrapper) Path() string {
	return b.dep.Path
}

// Start schedules acquisition in the background and returns immediately.
// ctx bounds the acquisition itself, so pass the process lifetime context:
// cancelling it interrupts downloads and retry delays.
func (b *Bootstrapper) Start(ctx context.Context) {
	b.mu.Lock()
	if ctx != nil {
		b.runCtx = ctx
	}
	b.mu.Unlock()
	b.trigger()
}

// EnsureReady blocks until the dependency settles or ctx ends. Once settled
// it returns immediately. A Failed result carries the last acquisition error.
func (b *Bootstrapper) EnsureReady(ctx context.Context) (State, error) {
	done := b.trigger()
	select {
	case <-done:
	case <-ctx.Done():
		return b.State(), ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateFailed {
		return b.state, services.Wrap(services.ErrDependency, "bootstrap", b.dep.Name, "acquisition failed", b.lastErr)
	}
	return b.state, nil
}

// State returns the current lifecycle state.
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot reports the current state for status surfaces.
func (b *Bootstrapper) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := Snapshot{
		Name:      b.dep.Name,
		Path:      b.dep.Path,
		Source:    b.dep.URL,
		State:     b.state,
		StateName: b.state.String(),
		Attempts:  b.tries,
		UpdatedAt: b.updated,
	}
	if b.lastErr != nil {
		snap.Error = b.lastErr.Error()
	}
	return snap
}

// Reset returns a Failed dependency to Uninitialized so the next trigger
// tries again. It reports whether a reset happened.
func (b *Bootstrapper) Reset() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateFailed {
		return false
	}
	b.state = StateUninitialized
	b.lastErr = nil
	b.tries = 0
	b.updated = b.now()
	return true
}

// trigger moves Uninitialized forward and returns a channel that is closed
// once the dependency has settled.
func (b *Bootstrapper) trigger() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateAcquiring:
		return b.done
	case StateReady, StateFailed:
		return closedChan
	}

	if b.alwaysReady || fileExists(b.dep.Path) {
		b.state = StateReady
		b.updated = b.now()
		b.logger.Debug("dependency already present", logging.String("path", b.dep.Path))
		return closedChan
	}

	b.state = StateAcquiring
	b.updated = b.now()
	done := make(chan struct{})
	b.done = done
	go b.acquire(b.runCtx, done)
	return done
}

func (b *Bootstrapper) acquire(ctx context.Context, done chan struct{}) {
	defer close(done)

	var lastErr error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		b.mu.Lock()
		b.tries++
		b.mu.Unlock()

		start := b.now()
		err := b.attemptOnce(ctx)
		if err == nil {
			b.settle(StateReady, nil)
			b.logger.Info("dependency ready",
				logging.Event("bootstrap_ready"),
				logging.String("path", b.dep.Path),
				slog.Int("attempt", attempt),
				slog.Duration("duration", b.now().Sub(start)),
			)
			return
		}
		lastErr = err
		b.logger.Warn("dependency acquisition attempt failed",
			logging.Event("bootstrap_attempt_failed"),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", b.attempts),
			logging.Error(err),
		)
		if ctx.Err() != nil || attempt == b.attempts {
			break
		}
		if err := b.sleep(ctx, b.delay); err != nil {
			lastErr = fmt.Errorf("%w (retry interrupted: %v)", lastErr, err)
			break
		}
	}

	b.settle(StateFailed, lastErr)
	b.logger.Error("dependency unavailable",
		logging.Event("bootstrap_failed"),
		logging.String("source", b.dep.URL),
		logging.Error(lastErr),
	)
}

func (b *Bootstrapper) attemptOnce(ctx context.Context) error {
	if strings.TrimSpace(b.dep.URL) == "" {
		return fmt.Errorf("%s missing at %s and no download source configured", b.dep.Name, b.dep.Path)
	}
	if b.fetcher == nil {
		return errors.New("no fetcher configured")
	}

	if err := os.MkdirAll(filepath.Dir(b.dep.Path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(b.dep.Path), err)
	}
	lock := flock.New(b.dep.Path + ".lock")
	locked, err := lock.TryLockContext(ctx, defaultLockInterval)
	if err != nil {
		return fmt.Errorf("lock %s: %w", b.dep.Path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", b.dep.Path)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	// Another process may have finished while we waited on the lock.
	if fileExists(b.dep.Path) {
		return nil
	}

	mode := os.FileMode(0o644)
	if b.dep.Executable {
		mode = 0o755
	}
	if _, err := b.fetcher.Fetch(ctx, b.dep.URL, b.dep.Path, mode); err != nil {
		return err
	}
	if !fileExists(b.dep.Path) {
		return fmt.Errorf("%s not present after download", b.dep.Path)
	}
	return nil
}

func (b *Bootstrapper) settle(state State, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	b.lastErr = err
	b.updated = b.now()
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
