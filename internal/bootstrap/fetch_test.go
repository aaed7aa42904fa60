package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"videoconverter/internal/bootstrap"
)

func TestHTTPFetcherDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected user agent header")
		}
		_, _ = w.Write([]byte("#!/bin/sh\nexit 0\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "ffmpeg")
	f := bootstrap.NewHTTPFetcher(time.Minute, nil)
	n, err := f.Fetch(context.Background(), srv.URL+"/ffmpeg", dest, 0o755)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n == 0 {
		t.Fatal("expected bytes written")
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected executable mode, got %o", info.Mode().Perm())
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	if _, err := bootstrap.NewHTTPFetcher(time.Minute, nil).Fetch(context.Background(), srv.URL, dest, 0o644); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("no file should be left behind")
	}
}

func TestHTTPFetcherRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	if _, err := bootstrap.NewHTTPFetcher(time.Minute, nil).Fetch(context.Background(), srv.URL, dest, 0o644); err == nil {
		t.Fatal("expected error for empty download")
	}
}

func TestHTTPFetcherCopiesLocalSources(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "seed.bin")
	if err := os.WriteFile(src, []byte("seeded model"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := bootstrap.NewHTTPFetcher(time.Minute, nil)

	for _, source := range []string{src, "file://" + src} {
		dest := filepath.Join(t.TempDir(), "model.bin")
		n, err := f.Fetch(context.Background(), source, dest, 0o644)
		if err != nil {
			t.Fatalf("Fetch(%s): %v", source, err)
		}
		if n != int64(len("seeded model")) {
			t.Fatalf("unexpected size %d", n)
		}
	}

	if _, err := f.Fetch(context.Background(), "ftp://host/x", filepath.Join(dir, "x"), 0o644); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

func TestBootstrapperWithHTTPFetcherEndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ggml"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "models", "ggml-base.bin")
	dep := bootstrap.Dependency{Name: bootstrap.DependencySpeechModel, URL: srv.URL, Path: path}
	b := bootstrap.New(dep, bootstrap.NewHTTPFetcher(time.Minute, nil), nil)
	if state, err := b.EnsureReady(context.Background()); state != bootstrap.StateReady || err != nil {
		t.Fatalf("expected ready, got %s / %v", state, err)
	}

	again := bootstrap.New(dep, bootstrap.NewHTTPFetcher(time.Minute, nil), nil)
	if state, _ := again.EnsureReady(context.Background()); state != bootstrap.StateReady {
		t.Fatalf("expected cached ready, got %s", state)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single download across restarts, got %d", hits.Load())
	}
}
