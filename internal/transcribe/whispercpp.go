package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"videoconverter/internal/language"
	"videoconverter/internal/logging"
	"videoconverter/internal/services"
	"videoconverter/internal/toolexec"
)

// Runner executes the whisper.cpp binary. *toolexec.Invoker satisfies it.
type Runner interface {
	Run(ctx context.Context, tool string, args []string, timeout time.Duration) toolexec.Result
}

// WhisperCPPConfig configures the whisper.cpp engine.
type WhisperCPPConfig struct {
	Binary    string
	ModelPath string
	Language  string
	Threads   int
}

// WhisperCPP runs whisper.cpp's CLI and parses its -oj output.
type WhisperCPP struct {
	cfg    WhisperCPPConfig
	runner Runner
	logger *slog.Logger
}

// NewWhisperCPP builds the engine.
func NewWhisperCPP(cfg WhisperCPPConfig, runner Runner, logger *slog.Logger) *WhisperCPP {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "whisper-cli"
	}
	return &WhisperCPP{cfg: cfg, runner: runner, logger: logging.NewComponentLogger(logger, "whisper-cpp")}
}

func (w *WhisperCPP) Name() string { return "whisper-cpp" }

// Binary returns the executable the engine invokes.
func (w *WhisperCPP) Binary() string { return w.cfg.Binary }

// Transcribe implements Engine. The JSON sidecar whisper.cpp writes next to
// the audio file is removed before returning.
func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	outBase := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + "-whisper"
	jsonPath := outBase + ".json"
	defer func() {
		if err := os.Remove(jsonPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("whisper output cleanup failed", logging.Error(err))
		}
	}()

	run := w.runner.Run(ctx, w.cfg.Binary, w.args(audioPath, outBase), 0)
	if !run.Succeeded {
		err := run.Err()
		return Result{}, services.Wrap(services.Marker(err), "transcribing", "", run.StderrTail(5), err)
	}

	payload, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribing", w.cfg.Binary, "read json output", err)
	}
	return parseWhisperJSON(payload)
}

func (w *WhisperCPP) args(audioPath, outBase string) []string {
	lang := language.Auto
	if code, ok := language.Normalize(w.cfg.Language); ok {
		lang = code
	}
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", audioPath,
		"-l", lang,
		"-oj",
		"-of", outBase,
		"-np",
	}
	if w.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.cfg.Threads))
	}
	return args
}

type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseWhisperJSON(payload []byte) (Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribing", "whisper-cpp", "parse json output", err)
	}
	result := Result{Segments: make([]Segment, 0, len(out.Transcription))}
	for _, entry := range out.Transcription {
		result.Segments = append(result.Segments, Segment{
			Start: time.Duration(entry.Offsets.From) * time.Millisecond,
			End:   time.Duration(entry.Offsets.To) * time.Millisecond,
			Text:  strings.TrimSpace(entry.Text),
		})
	}
	if code, ok := language.Normalize(out.Result.Language); ok {
		result.Language = code
	}
	return result, nil
}

// String describes the engine for status output.
func (w *WhisperCPP) String() string {
	return fmt.Sprintf("whisper-cpp (%s)", filepath.Base(w.cfg.ModelPath))
}
