package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvironmentLocal = "local"
	EnvironmentCloud = "cloud"

	EngineWhisperCPP = "whisper-cpp"
	EngineOpenAI     = "openai"
)

// Server contains HTTP listener and request limits.
type Server struct {
	Bind                   string `toml:"bind"`
	Port                   int    `toml:"port"`
	Environment            string `toml:"environment"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
	MaxUploadMB            int    `toml:"max_upload_mb"`
	MaxConcurrent          int    `toml:"max_concurrent"`
}

// Paths contains on-disk locations for scratch files and acquired dependencies.
type Paths struct {
	TempDir   string `toml:"temp_dir"`
	ModelDir  string `toml:"model_dir"`
	ToolsDir  string `toml:"tools_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Transcoder configures the ffmpeg/ffprobe binaries.
type Transcoder struct {
	Command             string `toml:"command"`
	FFprobe             string `toml:"ffprobe"`
	DownloadURL         string `toml:"download_url"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
}

// Recognition configures the speech recognition engine.
type Recognition struct {
	Engine         string `toml:"engine"`
	Command        string `toml:"command"`
	ModelFile      string `toml:"model_file"`
	ModelURL       string `toml:"model_url"`
	Language       string `toml:"language"`
	Threads        int    `toml:"threads"`
	DetectLanguage bool   `toml:"detect_language"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIModel    string `toml:"openai_model"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
}

// Bootstrap controls dependency acquisition retries.
type Bootstrap struct {
	Attempts               int `toml:"attempts"`
	RetryDelaySeconds      int `toml:"retry_delay_seconds"`
	DownloadTimeoutSeconds int `toml:"download_timeout_seconds"`
}

// Logging contains logging configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// History controls the conversion audit log.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Config encapsulates all configuration values for the converter.
type Config struct {
	Server      Server      `toml:"server"`
	Paths       Paths       `toml:"paths"`
	Transcoder  Transcoder  `toml:"transcoder"`
	Recognition Recognition `toml:"recognition"`
	Bootstrap   Bootstrap   `toml:"bootstrap"`
	Logging     Logging     `toml:"logging"`
	History     History     `toml:"history"`
}

// Load builds the effective configuration: defaults, then the TOML file, then
// .env and environment overrides, then validation. It returns the config, the
// path that was (or would have been) read, and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	steps := []func() error{
		func() error { return loadDotEnv(".env") },
		cfg.normalize,
		cfg.Validate,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, "", false, err
		}
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects unknown keys so typos surface instead of silently
// falling back to defaults.
func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv fills unset variables from a dotenv file. Variables already in
// the environment win. A missing file is not an error.
func loadDotEnv(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case info.IsDir():
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath honours an explicit path even when the file is absent.
// Otherwise the first existing candidate wins, and the per-user path is
// reported when none exist.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		if err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, exists, nil
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{projectConfigName, userPath} {
		path, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if ok, _ := isFile(path); ok {
			return path, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// IsLocal reports whether dependency bootstrap is skipped.
func (c *Config) IsLocal() bool {
	return c.Server.Environment == EnvironmentLocal
}

// ListenAddress returns the host:port the HTTP server binds to.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.Server.Bind, strconv.Itoa(c.Server.Port))
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) RequestTimeout() time.Duration { return seconds(c.Server.RequestTimeoutSeconds) }
func (c *Config) ShutdownTimeout() time.Duration { return seconds(c.Server.ShutdownTimeoutSeconds) }
func (c *Config) ProbeTimeout() time.Duration { return seconds(c.Transcoder.ProbeTimeoutSeconds) }
func (c *Config) RetryDelay() time.Duration { return seconds(c.Bootstrap.RetryDelaySeconds) }
func (c *Config) DownloadTimeout() time.Duration { return seconds(c.Bootstrap.DownloadTimeoutSeconds) }

// MaxUploadBytes returns the request body ceiling for conversion uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// ModelRequired reports whether the configured engine needs a local model file.
func (c *Config) ModelRequired() bool {
	return c.Recognition.Engine == EngineWhisperCPP
}
