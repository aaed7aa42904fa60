//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"videoconverter/internal/api"
	"videoconverter/internal/app"
	"videoconverter/internal/config"
	"videoconverter/internal/logging"
	"videoconverter/internal/server"
	"videoconverter/internal/testsupport"
)

// serviceContext holds one scenario's running service and last response.
type serviceContext struct {
	baseDir string
	ffmpeg  string
	whisper string
	cfg     *config.Config
	app     *app.App
	server  *httptest.Server

	status int
	header http.Header
	body   []byte
}

var current *serviceContext

func InitializeServiceScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		current = &serviceContext{}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if current != nil {
			current.close()
		}
		current = nil
		return c, nil
	})

	ctx.Step(`^the conversion service is running$`, theConversionServiceIsRunning)
	ctx.Step(`^the transcoder fails$`, theTranscoderFails)
	ctx.Step(`^the video contains no speech$`, theVideoContainsNoSpeech)
	ctx.Step(`^the speech recognizer fails$`, theSpeechRecognizerFails)

	ctx.Step(`^I upload "([^"]*)" to the (audio|text) endpoint$`, iUploadTo)
	ctx.Step(`^I upload "([^"]*)" to the audio endpoint as "([^"]*)"$`, iUploadAudioAs)
	ctx.Step(`^I upload an empty "([^"]*)" to the (audio|text) endpoint$`, iUploadEmpty)
	ctx.Step(`^I request the (status|history) endpoint$`, iRequestEndpoint)

	ctx.Step(`^the response status is (\d+)$`, theResponseStatusIs)
	ctx.Step(`^the response header "([^"]*)" is "([^"]*)"$`, theResponseHeaderIs)
	ctx.Step(`^the response header "([^"]*)" contains "([^"]*)"$`, theResponseHeaderContains)
	ctx.Step(`^the error message is "([^"]*)"$`, theErrorMessageIs)
	ctx.Step(`^the error message starts with "([^"]*)"$`, theErrorMessageStartsWith)

	ctx.Step(`^the transcription contains "([^"]*)"$`, theTranscriptionContains)
	ctx.Step(`^the transcription is "([^"]*)"$`, theTranscriptionIs)
	ctx.Step(`^the segment count is (\d+)$`, theSegmentCountIs)
	ctx.Step(`^the word count is (\d+)$`, theWordCountIs)
	ctx.Step(`^the detected language is "([^"]*)"$`, theDetectedLanguageIs)

	ctx.Step(`^the transcoder is reported available$`, theTranscoderIsReportedAvailable)
	ctx.Step(`^the status lists input extension "([^"]*)"$`, theStatusListsInputExtension)
	ctx.Step(`^the status lists audio output "([^"]*)"$`, theStatusListsAudioOutput)
	ctx.Step(`^the history has (\d+) entr(?:y|ies)$`, theHistoryHasEntries)
	ctx.Step(`^the latest history entry failed with "([^"]*)"$`, theLatestHistoryEntryFailedWith)

	ctx.Step(`^no temporary files remain$`, noTemporaryFilesRemain)
}

func (s *serviceContext) close() {
	if s.server != nil {
		s.server.Close()
	}
	if s.app != nil {
		_ = s.app.Close()
	}
	if s.baseDir != "" {
		_ = os.RemoveAll(s.baseDir)
	}
}

func theConversionServiceIsRunning() error {
	base, err := os.MkdirTemp("", "videoconverter-features-")
	if err != nil {
		return err
	}
	s := current
	s.baseDir = base
	stubs, err := testsupport.InstallStubs(filepath.Join(base, "bin"))
	if err != nil {
		return err
	}
	s.ffmpeg = stubs.FFmpeg
	s.whisper = stubs.Whisper

	cfg := config.Default()
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.ModelDir = filepath.Join(base, "models")
	cfg.Paths.ToolsDir = filepath.Join(base, "tools")
	cfg.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfg.Transcoder.Command = s.ffmpeg
	cfg.Transcoder.FFprobe = stubs.FFprobe
	cfg.Recognition.Command = s.whisper
	cfg.Recognition.DetectLanguage = false
	s.cfg = &cfg

	a, err := app.New(context.Background(), s.cfg, logging.NewNop())
	if err != nil {
		return fmt.Errorf("assemble app: %w", err)
	}
	s.app = a

	srv := server.New(server.Options{
		Version:        "test",
		MaxUploadBytes: cfg.MaxUploadBytes(),
		MaxConcurrent:  cfg.Server.MaxConcurrent,
		RequestTimeout: cfg.RequestTimeout(),
	}, a.Pipeline, a.Status, a.History, logging.NewNop())
	s.server = httptest.NewServer(srv.Handler())
	return nil
}

func theTranscoderFails() error {
	return testsupport.WriteScript(current.ffmpeg, testsupport.FFmpegFailingStub)
}

func theVideoContainsNoSpeech() error {
	return testsupport.WriteScript(current.whisper, testsupport.WhisperSilentStub)
}

func theSpeechRecognizerFails() error {
	return testsupport.WriteScript(current.whisper, testsupport.WhisperFailingStub)
}

func (s *serviceContext) upload(kind, fileName string, data []byte, format string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if format != "" {
		if err := writer.WriteField("format", format); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	url := s.server.URL + server.BasePath + "/" + kind
	resp, err := http.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	return s.capture(resp)
}

func (s *serviceContext) capture(resp *http.Response) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.status = resp.StatusCode
	s.header = resp.Header
	s.body = data
	return nil
}

func iUploadTo(fileName, kind string) error {
	return current.upload(kind, fileName, []byte("fake video payload"), "")
}

func iUploadAudioAs(fileName, format string) error {
	return current.upload("audio", fileName, []byte("fake video payload"), format)
}

func iUploadEmpty(fileName, kind string) error {
	return current.upload(kind, fileName, nil, "")
}

func iRequestEndpoint(name string) error {
	resp, err := http.Get(current.server.URL + server.BasePath + "/" + name)
	if err != nil {
		return err
	}
	return current.capture(resp)
}

func theResponseStatusIs(expected int) error {
	if current.status != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, current.status, current.body)
	}
	return nil
}

func theResponseHeaderIs(name, expected string) error {
	if got := current.header.Get(name); got != expected {
		return fmt.Errorf("expected header %s %q, got %q", name, expected, got)
	}
	return nil
}

func theResponseHeaderContains(name, expected string) error {
	if got := current.header.Get(name); !strings.Contains(got, expected) {
		return fmt.Errorf("expected header %s to contain %q, got %q", name, expected, got)
	}
	return nil
}

func errorMessage() (string, error) {
	var payload api.Error
	if err := json.Unmarshal(current.body, &payload); err != nil {
		return "", fmt.Errorf("decode error body %q: %w", current.body, err)
	}
	return payload.Error, nil
}

func theErrorMessageIs(expected string) error {
	msg, err := errorMessage()
	if err != nil {
		return err
	}
	if msg != expected {
		return fmt.Errorf("expected error %q, got %q", expected, msg)
	}
	return nil
}

func theErrorMessageStartsWith(prefix string) error {
	msg, err := errorMessage()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(msg, prefix) {
		return fmt.Errorf("expected error starting with %q, got %q", prefix, msg)
	}
	return nil
}

func transcription() (api.Transcription, error) {
	var payload api.Transcription
	if err := json.Unmarshal(current.body, &payload); err != nil {
		return payload, fmt.Errorf("decode transcription %q: %w", current.body, err)
	}
	return payload, nil
}

func theTranscriptionContains(expected string) error {
	t, err := transcription()
	if err != nil {
		return err
	}
	if !strings.Contains(t.Transcription, expected) {
		return fmt.Errorf("expected transcription to contain %q, got %q", expected, t.Transcription)
	}
	return nil
}

func theTranscriptionIs(expected string) error {
	t, err := transcription()
	if err != nil {
		return err
	}
	if t.Transcription != expected {
		return fmt.Errorf("expected transcription %q, got %q", expected, t.Transcription)
	}
	return nil
}

func theSegmentCountIs(expected int) error {
	t, err := transcription()
	if err != nil {
		return err
	}
	if t.SegmentCount != expected {
		return fmt.Errorf("expected %d segments, got %d", expected, t.SegmentCount)
	}
	return nil
}

func theWordCountIs(expected int) error {
	t, err := transcription()
	if err != nil {
		return err
	}
	if t.WordCount != expected {
		return fmt.Errorf("expected %d words, got %d", expected, t.WordCount)
	}
	return nil
}

func theDetectedLanguageIs(expected string) error {
	t, err := transcription()
	if err != nil {
		return err
	}
	if t.Language != expected {
		return fmt.Errorf("expected language %q, got %q", expected, t.Language)
	}
	return nil
}

func status() (api.Status, error) {
	var payload api.Status
	if err := json.Unmarshal(current.body, &payload); err != nil {
		return payload, fmt.Errorf("decode status %q: %w", current.body, err)
	}
	return payload, nil
}

func theTranscoderIsReportedAvailable() error {
	st, err := status()
	if err != nil {
		return err
	}
	if !st.ToolAvailable {
		return fmt.Errorf("expected toolAvailable true")
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func theStatusListsInputExtension(ext string) error {
	st, err := status()
	if err != nil {
		return err
	}
	if !contains(st.SupportedInputExtensions, ext) {
		return fmt.Errorf("expected %q in %v", ext, st.SupportedInputExtensions)
	}
	return nil
}

func theStatusListsAudioOutput(format string) error {
	st, err := status()
	if err != nil {
		return err
	}
	if !contains(st.SupportedAudioOutputs, format) {
		return fmt.Errorf("expected %q in %v", format, st.SupportedAudioOutputs)
	}
	return nil
}

func historyEntries() ([]api.HistoryEntry, error) {
	var payload api.HistoryResponse
	if err := json.Unmarshal(current.body, &payload); err != nil {
		return nil, fmt.Errorf("decode history %q: %w", current.body, err)
	}
	return payload.Entries, nil
}

func theHistoryHasEntries(expected int) error {
	entries, err := historyEntries()
	if err != nil {
		return err
	}
	if len(entries) != expected {
		return fmt.Errorf("expected %d history entries, got %d", expected, len(entries))
	}
	return nil
}

func theLatestHistoryEntryFailedWith(kind string) error {
	entries, err := historyEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("history is empty")
	}
	latest := entries[0]
	if latest.Status != "failed" || latest.FailureKind != kind {
		return fmt.Errorf("expected latest entry failed with %q, got %+v", kind, latest)
	}
	return nil
}

func noTemporaryFilesRemain() error {
	entries, err := os.ReadDir(current.cfg.Paths.TempDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "vc-") {
			return fmt.Errorf("leftover temp file %s", entry.Name())
		}
	}
	return nil
}
