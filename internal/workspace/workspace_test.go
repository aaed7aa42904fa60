package workspace_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"videoconverter/internal/workspace"
)

func newManager(t *testing.T) *workspace.Manager {
	t.Helper()
	m, err := workspace.NewManager(filepath.Join(t.TempDir(), "scratch"), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestAcquireCreatesUniqueFiles(t *testing.T) {
	m := newManager(t)
	scope := m.Scope()
	defer scope.Close()

	in, err := scope.Acquire(workspace.KindInput, "mp4")
	if err != nil {
		t.Fatalf("Acquire input: %v", err)
	}
	out, err := scope.Acquire(workspace.KindOutput, ".wav")
	if err != nil {
		t.Fatalf("Acquire output: %v", err)
	}
	if in.Path == out.Path {
		t.Fatal("expected distinct paths")
	}
	if filepath.Ext(in.Path) != ".mp4" || filepath.Ext(out.Path) != ".wav" {
		t.Fatalf("unexpected extensions: %s %s", in.Path, out.Path)
	}
	if filepath.Dir(in.Path) != m.Dir() {
		t.Fatalf("expected asset inside scratch dir, got %s", in.Path)
	}
	for _, p := range []string{in.Path, out.Path} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to exist: %v", p, err)
		}
	}
	if got := len(scope.Assets()); got != 2 {
		t.Fatalf("expected 2 held assets, got %d", got)
	}
}

func TestCloseRemovesEverything(t *testing.T) {
	m := newManager(t)
	scope := m.Scope()

	var paths []string
	for _, kind := range []workspace.Kind{workspace.KindInput, workspace.KindIntermediateAudio, workspace.KindOutput} {
		asset, err := scope.Acquire(kind, "bin")
		if err != nil {
			t.Fatalf("Acquire %s: %v", kind, err)
		}
		if err := os.WriteFile(asset.Path, []byte("payload"), 0o600); err != nil {
			t.Fatalf("write asset: %v", err)
		}
		paths = append(paths, asset.Path)
	}

	scope.Close()
	scope.Close()

	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", p, err)
		}
	}
	if _, err := scope.Acquire(workspace.KindInput, "mp4"); err == nil {
		t.Fatal("expected acquire after close to fail")
	}
}

func TestReleaseToleratesMissingFile(t *testing.T) {
	m := newManager(t)
	scope := m.Scope()
	defer scope.Close()

	asset, err := scope.Acquire(workspace.KindOutput, "mp3")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := os.Remove(asset.Path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	scope.Release(asset)
	scope.Release(asset)
	if len(scope.Assets()) != 0 {
		t.Fatal("expected asset to be forgotten after release")
	}
}

func TestCloseRunsOnPanic(t *testing.T) {
	m := newManager(t)
	var path string
	func() {
		defer func() { _ = recover() }()
		scope := m.Scope()
		defer scope.Close()
		asset, err := scope.Acquire(workspace.KindInput, "mkv")
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		path = asset.Path
		panic("boom")
	}()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed after panic, stat err=%v", path, err)
	}
}

func TestConcurrentScopesNeverCollide(t *testing.T) {
	m := newManager(t)
	const workers = 16
	const perWorker = 25

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scope := m.Scope()
			defer scope.Close()
			for j := 0; j < perWorker; j++ {
				asset, err := scope.Acquire(workspace.KindInput, "mp4")
				if err != nil {
					t.Errorf("Acquire: %v", err)
					return
				}
				mu.Lock()
				if _, dup := seen[asset.Path]; dup {
					t.Errorf("duplicate path %s", asset.Path)
				}
				seen[asset.Path] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(m.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty scratch dir, found %d entries", len(entries))
	}
}

func TestSweepRemovesStaleAssetsOnly(t *testing.T) {
	m := newManager(t)
	stale := filepath.Join(m.Dir(), "vc-input-stale.mp4")
	fresh := filepath.Join(m.Dir(), "vc-input-fresh.mp4")
	foreign := filepath.Join(m.Dir(), "keep.txt")
	for _, p := range []string{stale, fresh, foreign} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(foreign, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := m.Sweep(time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected stale asset removed")
	}
	for _, p := range []string{fresh, foreign} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", strings.TrimPrefix(p, m.Dir()), err)
		}
	}
}
