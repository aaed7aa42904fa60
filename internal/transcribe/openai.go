package transcribe

import (
	"context"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"videoconverter/internal/language"
	"videoconverter/internal/logging"
	"videoconverter/internal/services"
)

// OpenAIConfig configures the hosted transcription engine.
type OpenAIConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Language string
}

// OpenAI sends audio to the OpenAI transcription endpoint.
type OpenAI struct {
	client   *openai.Client
	model    string
	language string
	logger   *slog.Logger
}

// NewOpenAI builds the engine.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}
	lang, _ := language.Normalize(cfg.Language)
	return &OpenAI{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: lang,
		logger:   logging.NewComponentLogger(logger, "openai"),
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Transcribe implements Engine.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	start := time.Now()
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: o.language,
	})
	if err != nil {
		marker := services.ErrExternalTool
		if ctx.Err() != nil {
			marker = services.ErrTimeout
		}
		return Result{}, services.Wrap(marker, "transcribing", "openai", "create transcription", err)
	}

	result := Result{Segments: make([]Segment, 0, len(resp.Segments))}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: secondsToDuration(seg.Start),
			End:   secondsToDuration(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	if len(result.Segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		result.Segments = append(result.Segments, Segment{
			End:  secondsToDuration(resp.Duration),
			Text: strings.TrimSpace(resp.Text),
		})
	}
	if code, ok := language.Normalize(resp.Language); ok {
		result.Language = code
	}

	o.logger.Debug("transcription received",
		slog.Int("segments", len(result.Segments)),
		logging.String("language", result.Language),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
}
