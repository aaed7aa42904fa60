package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteStream(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "upload.mp4")
	if err := os.WriteFile(dst, []byte("previous content that is longer"), 0o600); err != nil {
		t.Fatal(err)
	}

	n, err := WriteStream(dst, strings.NewReader("video"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes, got %d", n)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "video" {
		t.Fatalf("expected truncated content, got %q", got)
	}
}

func TestWriteAtomicRenamesOnSuccess(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "ffmpeg")

	n, err := WriteAtomic(dst, strings.NewReader("binary"), 0o755, 6)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Fatalf("expected 6 bytes, got %d", n)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected executable bits, got %o", info.Mode().Perm())
	}
	if _, err := os.Stat(dst + PartialSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected partial file to be gone, err=%v", err)
	}
}

func TestWriteAtomicRejectsEmptyAndShortWrites(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "model.bin")

	if _, err := WriteAtomic(dst, strings.NewReader(""), 0o644, 0); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := WriteAtomic(dst, strings.NewReader("abc"), 0o644, 10); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if NonEmptyFile(dst) {
		t.Fatal("destination must not exist after failed writes")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftovers, found %d", len(entries))
	}
}

func TestCopyAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("verified content for integrity check")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := CopyAtomic(src, dst, 0o755)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) {
		t.Fatalf("expected %d bytes, got %d", len(content), n)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
	}
	if _, err := os.Stat(dst + PartialSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected partial file removed, got %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyAtomicMissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := CopyAtomic(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"), 0o644); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if NonEmptyFile(empty) || NonEmptyFile(dir) || NonEmptyFile(filepath.Join(dir, "nope")) {
		t.Fatal("expected false for empty file, directory, and missing path")
	}
	if !NonEmptyFile(full) {
		t.Fatal("expected true for non-empty file")
	}
}
