package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateBootstrap(); err != nil {
		return err
	}
	if c.Transcoder.ProbeTimeoutSeconds <= 0 {
		return errors.New("transcoder.probe_timeout_seconds must be positive")
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case EnvironmentLocal, EnvironmentCloud:
	default:
		return fmt.Errorf("server.environment must be %q or %q, got %q", EnvironmentLocal, EnvironmentCloud, c.Server.Environment)
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return errors.New("server.request_timeout_seconds must be positive")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return errors.New("server.shutdown_timeout_seconds must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	if c.Server.MaxConcurrent <= 0 {
		return errors.New("server.max_concurrent must be positive")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	switch c.Recognition.Engine {
	case EngineWhisperCPP:
		if c.Recognition.Command == "" {
			return errors.New("recognition.command must be set for the whisper-cpp engine")
		}
		if c.Recognition.ModelFile == "" {
			return errors.New("recognition.model_file must be set for the whisper-cpp engine")
		}
		if !c.IsLocal() && c.Recognition.ModelURL == "" {
			return errors.New("recognition.model_url is required outside the local environment")
		}
	case EngineOpenAI:
		if c.Recognition.OpenAIAPIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/videoconverter/config.toml"
			}
			return fmt.Errorf("recognition.openai_api_key is required for the openai engine. Set OPENAI_API_KEY or edit %s", defaultPath)
		}
	default:
		return fmt.Errorf("recognition.engine must be %q or %q, got %q", EngineWhisperCPP, EngineOpenAI, c.Recognition.Engine)
	}
	if c.Recognition.Threads < 0 {
		return errors.New("recognition.threads must be zero or positive")
	}
	return nil
}

func (c *Config) validateBootstrap() error {
	if c.Bootstrap.Attempts < 1 {
		return errors.New("bootstrap.attempts must be at least 1")
	}
	if c.Bootstrap.RetryDelaySeconds < 0 {
		return errors.New("bootstrap.retry_delay_seconds must be zero or positive")
	}
	if c.Bootstrap.DownloadTimeoutSeconds <= 0 {
		return errors.New("bootstrap.download_timeout_seconds must be positive")
	}
	return nil
}
