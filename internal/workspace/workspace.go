package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"videoconverter/internal/logging"
)

// Kind labels the role an asset plays in a conversion.
type Kind string

const (
	KindInput             Kind = "input"
	KindIntermediateAudio Kind = "intermediate"
	KindOutput            Kind = "output"
)

const namePrefix = "vc-"

// Asset is a temporary file path owned by exactly one Scope.
type Asset struct {
	Path string
	Kind Kind
}

// Manager allocates scopes inside a scratch directory.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager ensures dir exists and returns a Manager rooted there.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("workspace: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create %s: %w", dir, err)
	}
	return &Manager{dir: dir, logger: logging.NewComponentLogger(logger, "workspace")}, nil
}

// Dir returns the scratch directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Scope opens a new asset scope. Callers must defer Close.
func (m *Manager) Scope() *Scope {
	return &Scope{manager: m}
}

// Sweep removes files this package created that are older than maxAge. It is
// meant for startup, to clear leftovers from a process that was killed before
// its scopes closed.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("workspace: read %s: %w", m.dir, err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), namePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Scope tracks the assets acquired during one pipeline run.
type Scope struct {
	manager *Manager

	mu     sync.Mutex
	assets []Asset
	closed bool
}

// Acquire reserves a new uniquely named file with the given extension. The
// file is created empty so the name cannot be claimed by anyone else.
func (s *Scope) Acquire(kind Kind, ext string) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Asset{}, errors.New("workspace: scope closed")
	}

	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := fmt.Sprintf("%s%s-%s%s", namePrefix, kind, uuid.NewString(), ext)
	path := filepath.Join(s.manager.dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return Asset{}, fmt.Errorf("workspace: allocate %s asset: %w", kind, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return Asset{}, fmt.Errorf("workspace: allocate %s asset: %w", kind, err)
	}

	asset := Asset{Path: path, Kind: kind}
	s.assets = append(s.assets, asset)
	return asset, nil
}

// Release deletes the asset file if present. Failures are logged and ignored.
func (s *Scope) Release(asset Asset) {
	s.mu.Lock()
	for i, held := range s.assets {
		if held.Path == asset.Path {
			s.assets = append(s.assets[:i], s.assets[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.manager.remove(asset)
}

// Close releases every asset still held and rejects further acquisitions.
// It is safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	held := s.assets
	s.assets = nil
	s.closed = true
	s.mu.Unlock()

	for i := len(held) - 1; i >= 0; i-- {
		s.manager.remove(held[i])
	}
}

// Assets returns a snapshot of the assets currently held.
func (s *Scope) Assets() []Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Asset(nil), s.assets...)
}

func (m *Manager) remove(asset Asset) {
	if asset.Path == "" {
		return
	}
	if err := os.Remove(asset.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Debug("temp asset removal failed",
			logging.String("path", asset.Path),
			logging.String("kind", string(asset.Kind)),
			logging.Error(err),
		)
	}
}
