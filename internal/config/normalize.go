package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscoder()
	c.normalizeRecognition()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if value, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("PORT: invalid value %q", value)
		}
		c.Server.Port = port
	}
	if value, ok := lookupFirst("VIDEOCONVERTER_ENV", "APP_ENV"); ok {
		c.Server.Environment = value
	}
	c.Server.Environment = canonicalEnvironment(c.Server.Environment)
	return nil
}

func canonicalEnvironment(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "local", "dev", "development":
		return EnvironmentLocal
	case "cloud", "managed", "prod", "production":
		return EnvironmentCloud
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("VIDEOCONVERTER_MODEL_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ModelDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("VIDEOCONVERTER_TEMP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TempDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.ModelDir) == "" {
		c.Paths.ModelDir = defaultModelDir
	}
	if strings.TrimSpace(c.Paths.ToolsDir) == "" {
		c.Paths.ToolsDir = defaultToolsDir
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = Default().Paths.TempDir
	}

	var err error
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.ModelDir, err = expandPath(c.Paths.ModelDir); err != nil {
		return fmt.Errorf("paths.model_dir: %w", err)
	}
	if c.Paths.ToolsDir, err = expandPath(c.Paths.ToolsDir); err != nil {
		return fmt.Errorf("paths.tools_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscoder() {
	if value, ok := os.LookupEnv("FFMPEG_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Transcoder.Command = strings.TrimSpace(value)
	}
	c.Transcoder.Command = strings.TrimSpace(c.Transcoder.Command)
	if c.Transcoder.Command == "" {
		c.Transcoder.Command = "ffmpeg"
	}
	c.Transcoder.FFprobe = strings.TrimSpace(c.Transcoder.FFprobe)
	if c.Transcoder.FFprobe == "" {
		c.Transcoder.FFprobe = "ffprobe"
	}
	c.Transcoder.DownloadURL = strings.TrimSpace(c.Transcoder.DownloadURL)
}

func (c *Config) normalizeRecognition() {
	c.Recognition.Engine = strings.ToLower(strings.TrimSpace(c.Recognition.Engine))
	switch c.Recognition.Engine {
	case "", "whisper", "whispercpp", "whisper.cpp":
		c.Recognition.Engine = EngineWhisperCPP
	}
	c.Recognition.Command = strings.TrimSpace(c.Recognition.Command)
	c.Recognition.ModelFile = strings.TrimSpace(c.Recognition.ModelFile)
	c.Recognition.ModelURL = strings.TrimSpace(c.Recognition.ModelURL)
	c.Recognition.Language = strings.ToLower(strings.TrimSpace(c.Recognition.Language))
	if c.Recognition.Language == "" {
		c.Recognition.Language = "auto"
	}
	c.Recognition.OpenAIAPIKey = strings.TrimSpace(c.Recognition.OpenAIAPIKey)
	if c.Recognition.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Recognition.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.Recognition.OpenAIModel = strings.TrimSpace(c.Recognition.OpenAIModel)
	if c.Recognition.OpenAIModel == "" {
		c.Recognition.OpenAIModel = defaultOpenAIModel
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("VIDEOCONVERTER_LOG_FORMAT"); ok {
		c.Logging.Format = value
	}
	if value, ok := os.LookupEnv("VIDEOCONVERTER_LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupFirst(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
