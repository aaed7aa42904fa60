package toolexec_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"videoconverter/internal/services"
	"videoconverter/internal/toolexec"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	inv := toolexec.New(nil)
	script := writeScript(t, "ok.sh", `echo "out $1"; echo "warn" 1>&2; exit 0`)

	result := inv.Run(context.Background(), script, []string{"arg"}, time.Minute)
	if !result.Succeeded || result.ExitCode != 0 {
		t.Fatalf("expected success, got %+v", result)
	}
	if strings.TrimSpace(string(result.Stdout)) != "out arg" {
		t.Fatalf("unexpected stdout %q", result.Stdout)
	}
	if strings.TrimSpace(string(result.Stderr)) != "warn" {
		t.Fatalf("unexpected stderr %q", result.Stderr)
	}
	if result.Err() != nil {
		t.Fatalf("expected nil Err, got %v", result.Err())
	}
}

func TestRunNonZeroExit(t *testing.T) {
	inv := toolexec.New(nil)
	script := writeScript(t, "fail.sh", `echo "line one" 1>&2; echo "Invalid data found" 1>&2; exit 3`)

	result := inv.Run(context.Background(), script, nil, time.Minute)
	if result.Succeeded {
		t.Fatal("expected failure")
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Message, "Invalid data found") {
		t.Fatalf("expected stderr tail in message, got %q", result.Message)
	}
	if !errors.Is(result.Err(), services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", result.Err())
	}
	if tail := result.StderrTail(1); tail != "Invalid data found" {
		t.Fatalf("unexpected tail %q", tail)
	}
}

func TestRunMissingBinary(t *testing.T) {
	inv := toolexec.New(nil)
	result := inv.Run(context.Background(), filepath.Join(t.TempDir(), "no-such-tool"), nil, time.Minute)
	if result.Succeeded || result.Started {
		t.Fatalf("expected spawn failure, got %+v", result)
	}
	if !strings.Contains(result.Message, "not found") {
		t.Fatalf("expected not found message, got %q", result.Message)
	}
	if !errors.Is(result.Err(), services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", result.Err())
	}
}

func TestRunPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses execute permission checks")
	}
	path := filepath.Join(t.TempDir(), "noexec.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	result := toolexec.New(nil).Run(context.Background(), path, nil, time.Minute)
	if result.Succeeded || result.Started {
		t.Fatalf("expected spawn failure, got %+v", result)
	}
}

func TestRunDrainsLargeOutput(t *testing.T) {
	inv := toolexec.New(nil)
	script := writeScript(t, "chatty.sh", `head -c 1048576 /dev/zero 1>&2; head -c 524288 /dev/zero`)

	result := inv.Run(context.Background(), script, nil, time.Minute)
	if !result.Succeeded {
		t.Fatalf("expected success, got %+v", result.Message)
	}
	if len(result.Stderr) != 1<<20 || len(result.Stdout) != 1<<19 {
		t.Fatalf("unexpected captured sizes stdout=%d stderr=%d", len(result.Stdout), len(result.Stderr))
	}
}

func TestRunTimeoutKillsProcessGroup(t *testing.T) {
	inv := toolexec.New(nil, toolexec.WithWaitDelay(time.Second))
	script := writeScript(t, "hang.sh", `sleep 30 & wait`)

	start := time.Now()
	result := inv.Run(context.Background(), script, nil, 200*time.Millisecond)
	elapsed := time.Since(start)

	if result.Succeeded || !result.TimedOut {
		t.Fatalf("expected timeout, got %+v", result)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
	if !errors.Is(result.Err(), services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", result.Err())
	}
}

func TestRunCancellation(t *testing.T) {
	inv := toolexec.New(nil, toolexec.WithWaitDelay(time.Second))
	script := writeScript(t, "hang.sh", `sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	result := inv.Run(ctx, script, nil, time.Minute)
	if result.Succeeded || !result.Canceled || result.TimedOut {
		t.Fatalf("expected cancellation, got %+v", result)
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := toolexec.New(nil).Run(ctx, writeScript(t, "ok.sh", "exit 0"), nil, time.Minute)
	if result.Succeeded || !result.Canceled {
		t.Fatalf("expected cancelled result, got %+v", result)
	}
}

func TestRunWithEnv(t *testing.T) {
	inv := toolexec.New(nil, toolexec.WithEnv("VC_TEST_VALUE=42"))
	script := writeScript(t, "env.sh", `echo "$VC_TEST_VALUE"`)
	result := inv.Run(context.Background(), script, nil, time.Minute)
	if strings.TrimSpace(string(result.Stdout)) != "42" {
		t.Fatalf("expected env passthrough, got %q", result.Stdout)
	}
}

func TestProbe(t *testing.T) {
	inv := toolexec.New(nil, toolexec.WithWaitDelay(time.Second))
	ok := writeScript(t, "ffmpeg", `[ "$1" = "-version" ] && echo "ffmpeg version 6.1" && exit 0; exit 1`)
	slow := writeScript(t, "slow", `sleep 30`)

	if !inv.Probe(context.Background(), ok, time.Second) {
		t.Fatal("expected probe success")
	}
	if inv.Probe(context.Background(), filepath.Join(t.TempDir(), "missing"), time.Second) {
		t.Fatal("expected probe failure for missing binary")
	}
	if inv.Probe(context.Background(), "", time.Second) {
		t.Fatal("expected probe failure for empty tool")
	}
	start := time.Now()
	if inv.Probe(context.Background(), slow, 200*time.Millisecond) {
		t.Fatal("expected probe failure for hanging tool")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("probe exceeded its timeout")
	}
}
