package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"videoconverter/internal/config"
	"videoconverter/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"PORT", "VIDEOCONVERTER_ENV", "APP_ENV", "FFMPEG_PATH", "VIDEOCONVERTER_TEMP_DIR", "VIDEOCONVERTER_MODEL_DIR"} {
		t.Setenv(key, "")
	}
	t.Setenv("VIDEOCONVERTER_LOG_LEVEL", "error")

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedTools())
	base := filepath.Dir(cfg.Paths.TempDir)
	t.Setenv("HOME", filepath.Join(base, "home"))

	return &cliTestEnv{
		cfg:        cfg,
		baseDir:    base,
		configPath: testsupport.WriteConfigFile(t, cfg),
	}
}

func (e *cliTestEnv) writeVideo(t *testing.T, name string, data []byte) string {
	t.Helper()
	return testsupport.WriteVideo(t, e.baseDir, name, data)
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func requireNoTempFiles(t *testing.T, env *cliTestEnv) {
	t.Helper()
	if left := testsupport.LeftoverTempFiles(t, env.cfg.Paths.TempDir); len(left) > 0 {
		t.Fatalf("leftover temp files: %v", left)
	}
}
