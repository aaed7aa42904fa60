package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	projectConfigName  = "videoconverter.toml"
	userConfigPath     = "~/.config/videoconverter/config.toml"
	bootstrappedFFmpeg = "ffmpeg"
)

// DefaultConfigPath returns the per-user configuration file path.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigPath)
}

// ExpandPath resolves a leading ~ and relative segments to an absolute path.
// An empty path stays empty.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimLeft(path[1:], `/\`))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}

// EnsureDirectories creates every directory the current settings write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.TempDir, c.Paths.ModelDir, c.Paths.LogDir}
	if c.TranscoderBootstrapped() {
		dirs = append(dirs, c.Paths.ToolsDir)
	}
	if c.History.Enabled && c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ModelPath is the stable location of the speech recognition model file.
func (c *Config) ModelPath() string {
	return filepath.Join(c.Paths.ModelDir, c.Recognition.ModelFile)
}

// TranscoderBootstrapped reports whether ffmpeg is acquired at runtime rather
// than taken from PATH.
func (c *Config) TranscoderBootstrapped() bool {
	return !c.IsLocal() && strings.TrimSpace(c.Transcoder.DownloadURL) != ""
}

// TranscoderBinary returns the ffmpeg executable to invoke.
func (c *Config) TranscoderBinary() string {
	if c.TranscoderBootstrapped() {
		return filepath.Join(c.Paths.ToolsDir, bootstrappedFFmpeg)
	}
	return c.Transcoder.Command
}

// FFprobeBinary returns the ffprobe executable to invoke.
func (c *Config) FFprobeBinary() string {
	return c.Transcoder.FFprobe
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
