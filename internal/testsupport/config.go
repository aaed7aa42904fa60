package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"videoconverter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Language detection is off so transcripts stay deterministic.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1"
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Paths.ModelDir = filepath.Join(base, "models")
	cfgVal.Paths.ToolsDir = filepath.Join(base, "tools")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "data", "history.db")
	cfgVal.Recognition.DetectLanguage = false
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStubbedTools installs shell stubs for ffmpeg and whisper-cli and
// points the config at them. ffprobe is left missing so media inspection
// is skipped.
func WithStubbedTools() ConfigOption {
	return func(b *configBuilder) {
		stubs, err := InstallStubs(filepath.Join(b.baseDir, "bin"))
		if err != nil {
			b.t.Fatalf("install stubs: %v", err)
		}
		b.cfg.Transcoder.Command = stubs.FFmpeg
		b.cfg.Transcoder.FFprobe = stubs.FFprobe
		b.cfg.Recognition.Command = stubs.Whisper
	}
}

// WithHistoryDisabled turns off the conversion log.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithEnvironment sets server.environment.
func WithEnvironment(env string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Environment = env
	}
}

// WriteConfigFile encodes cfg as TOML next to its temp directory and
// returns the path.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(filepath.Dir(cfg.Paths.TempDir), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
