package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// PartialSuffix marks files still being written by WriteAtomic.
const PartialSuffix = ".download"

// ErrEmptyContent is returned when a write produced zero bytes.
var ErrEmptyContent = errors.New("no content written")

// WriteStream truncates dst and streams r into it, returning the byte count.
func WriteStream(dst string, r io.Reader) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	return n, errors.Join(copyErr, closeErr)
}

// WriteAtomic streams r into dst+PartialSuffix and renames it over dst once
// the data is synced, non-empty, and expectedSize bytes long when
// expectedSize is positive. Readers of dst never observe a partial file.
func WriteAtomic(dst string, r io.Reader, mode os.FileMode, expectedSize int64) (int64, error) {
	tmp := dst + PartialSuffix
	n, err := fill(tmp, r, mode)
	switch {
	case err != nil:
	case n == 0:
		err = ErrEmptyContent
	case expectedSize > 0 && n != expectedSize:
		err = fmt.Errorf("size mismatch: expected %d bytes, wrote %d", expectedSize, n)
	default:
		// OpenFile applies the umask; the caller asked for mode exactly.
		if err = os.Chmod(tmp, mode); err == nil {
			err = os.Rename(tmp, dst)
		}
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return n, err
}

func fill(path string, r io.Reader, mode os.FileMode) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, r)
	if err == nil {
		err = out.Sync()
	}
	return n, errors.Join(err, out.Close())
}

// CopyAtomic copies src over dst through WriteAtomic, then re-reads dst and
// compares its SHA-256 with what was read from src. dst is removed on
// mismatch.
func CopyAtomic(src, dst string, mode os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	srcHash := sha256.New()
	n, err := WriteAtomic(dst, io.TeeReader(in, srcHash), mode, info.Size())
	if err != nil {
		return n, err
	}

	dstSum, err := Digest(dst)
	if err != nil {
		return n, err
	}
	if !bytes.Equal(srcHash.Sum(nil), dstSum) {
		_ = os.Remove(dst)
		return n, errors.New("copy hash mismatch: file corrupted during copy")
	}
	return n, nil
}

// Digest returns the SHA-256 of the file at path.
func Digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// NonEmptyFile reports whether path is a regular file with at least one byte.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
