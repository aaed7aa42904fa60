package config

import (
	"os"
	"path/filepath"
)

const (
	defaultBind                   = "0.0.0.0"
	defaultPort                   = 8080
	defaultRequestTimeoutSeconds  = 900
	defaultShutdownTimeoutSeconds = 30
	defaultMaxUploadMB            = 500
	defaultMaxConcurrent          = 4
	defaultModelDir               = "~/.cache/videoconverter/models"
	defaultToolsDir               = "~/.cache/videoconverter/bin"
	defaultHistoryDB              = "~/.local/share/videoconverter/history.db"
	defaultModelFile              = "ggml-base.bin"
	defaultModelURL               = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin"
	defaultOpenAIModel            = "whisper-1"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                   defaultBind,
			Port:                   defaultPort,
			Environment:            EnvironmentLocal,
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
			MaxUploadMB:            defaultMaxUploadMB,
			MaxConcurrent:          defaultMaxConcurrent,
		},
		Paths: Paths{
			TempDir:   filepath.Join(os.TempDir(), "videoconverter"),
			ModelDir:  defaultModelDir,
			ToolsDir:  defaultToolsDir,
			HistoryDB: defaultHistoryDB,
		},
		Transcoder: Transcoder{
			Command:             "ffmpeg",
			FFprobe:             "ffprobe",
			ProbeTimeoutSeconds: 5,
		},
		Recognition: Recognition{
			Engine:         EngineWhisperCPP,
			Command:        "whisper-cli",
			ModelFile:      defaultModelFile,
			ModelURL:       defaultModelURL,
			Language:       "auto",
			DetectLanguage: true,
			OpenAIModel:    defaultOpenAIModel,
		},
		Bootstrap: Bootstrap{
			Attempts:               3,
			RetryDelaySeconds:      5,
			DownloadTimeoutSeconds: 1800,
		},
		Logging: Logging{
			Format: "console",
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:       true,
			RetentionDays: 30,
		},
	}
}
