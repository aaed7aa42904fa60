package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteVideo writes a placeholder upload named name into dir and returns
// its path. The stubbed tools never read the contents.
func WriteVideo(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// LeftoverTempFiles lists converter scratch files still present in dir.
func LeftoverTempFiles(t testing.TB, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "vc-") {
			names = append(names, entry.Name())
		}
	}
	return names
}
