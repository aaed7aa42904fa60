package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"videoconverter/internal/api"
	"videoconverter/internal/convert"
	"videoconverter/internal/history"
	"videoconverter/internal/logging"
	"videoconverter/internal/services"
	"videoconverter/internal/toolexec"
	"videoconverter/internal/transcribe"
	"videoconverter/internal/workspace"
)

type stubConverter struct {
	audio      convert.AudioArtifact
	transcript convert.Transcript
	err        error
	panics     bool
	lastReq    convert.Request
	body       string
	requestID  string
}

func (c *stubConverter) capture(ctx context.Context, req convert.Request) {
	c.lastReq = req
	if req.Source != nil {
		data, _ := io.ReadAll(req.Source)
		c.body = string(data)
	}
	c.requestID, _ = services.RequestIDFromContext(ctx)
}

func (c *stubConverter) ConvertToAudio(ctx context.Context, req convert.Request) (convert.AudioArtifact, error) {
	if c.panics {
		panic("converter exploded")
	}
	c.capture(ctx, req)
	return c.audio, c.err
}

func (c *stubConverter) ConvertToText(ctx context.Context, req convert.Request) (convert.Transcript, error) {
	c.capture(ctx, req)
	return c.transcript, c.err
}

type stubHistory struct {
	entries []history.Entry
	limit   int
}

func (h *stubHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	h.limit = limit
	return h.entries, nil
}

func multipartBody(t *testing.T, field, fileName string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func newTestServer(conv Converter, hist HistoryLister, opts Options) *Server {
	status := func(context.Context) api.Status {
		return api.Status{ToolAvailable: true, SupportedAudioOutputs: []string{"mp3"}, Environment: "local"}
	}
	return New(opts, conv, status, hist, logging.NewNop())
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload api.Error
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error
}

func TestInfoAndStatus(t *testing.T) {
	srv := newTestServer(&stubConverter{}, nil, Options{Version: "1.2.3"})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath, nil))
	var info api.ServiceInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Version != "1.2.3" || info.Endpoints["audio"] == "" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath+"/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code %d", w.Code)
	}
	var status api.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.ToolAvailable || status.Environment != "local" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestAudioEndpointReturnsBytes(t *testing.T) {
	conv := &stubConverter{audio: convert.AudioArtifact{
		Data:        []byte("RIFFdata"),
		ContentType: "audio/wav",
		FileName:    "clip.wav",
		Format:      "wav",
		Duration:    2 * time.Second,
	}}
	srv := newTestServer(conv, nil, Options{})
	body, contentType := multipartBody(t, "file", "clip.mp4", []byte("video"), map[string]string{"format": "wav"})
	req := httptest.NewRequest(http.MethodPost, BasePath+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "audio/wav" {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), `filename=clip.wav`) {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
	if w.Header().Get("X-Audio-Duration") != "2.000" {
		t.Fatalf("unexpected duration header %q", w.Header().Get("X-Audio-Duration"))
	}
	if w.Body.String() != "RIFFdata" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if conv.lastReq.AudioFormat != "wav" || conv.lastReq.FileName != "clip.mp4" || conv.body != "video" {
		t.Fatalf("unexpected request: %+v body=%q", conv.lastReq, conv.body)
	}
	if conv.requestID != "abc-123" {
		t.Fatalf("request id not propagated, got %q", conv.requestID)
	}
}

func TestTextEndpointReturnsJSON(t *testing.T) {
	conv := &stubConverter{transcript: convert.Transcript{
		FileName:    "talk.mp4",
		Text:        "[00:00:00.000 - 00:00:01.000] hello",
		WordCount:   5,
		ProcessedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}}
	srv := newTestServer(conv, nil, Options{})
	body, contentType := multipartBody(t, "file", "talk.mp4", []byte("video"), nil)
	req := httptest.NewRequest(http.MethodPost, BasePath+"/text", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload api.Transcription
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.FileName != "talk.mp4" || payload.WordCount != 5 || payload.ProcessedAt != "2026-05-01T00:00:00.000Z" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if conv.lastReq.Kind != convert.OutputText {
		t.Fatalf("expected text kind, got %q", conv.lastReq.Kind)
	}
}

func TestFailureMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&convert.Failure{Kind: convert.InvalidInput, Message: "Unsupported file type"}, http.StatusBadRequest},
		{&convert.Failure{Kind: convert.ConversionFailed, Message: "Audio conversion failed"}, http.StatusInternalServerError},
		{&convert.Failure{Kind: convert.DependencyUnavailable, Message: "model unavailable"}, http.StatusInternalServerError},
		{errors.New("disk full at /var/tmp/secret"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := newTestServer(&stubConverter{err: tc.err}, nil, Options{})
		body, contentType := multipartBody(t, "file", "clip.mp4", []byte("v"), nil)
		req := httptest.NewRequest(http.MethodPost, BasePath+"/audio", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		if msg := decodeError(t, w.Body); strings.Contains(msg, "secret") {
			t.Fatalf("internal detail leaked: %q", msg)
		}
	}
}

func TestMissingFileField(t *testing.T) {
	conv := &stubConverter{}
	srv := newTestServer(conv, nil, Options{})
	body, contentType := multipartBody(t, "", "", nil, map[string]string{"format": "mp3"})
	req := httptest.NewRequest(http.MethodPost, BasePath+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeError(t, w.Body); msg != "No video file provided" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestNonMultipartRejected(t *testing.T) {
	srv := newTestServer(&stubConverter{}, nil, Options{})
	req := httptest.NewRequest(http.MethodPost, BasePath+"/text", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestOversizeUploadRejected(t *testing.T) {
	conv := &stubConverter{}
	srv := newTestServer(conv, nil, Options{MaxUploadBytes: 1024})
	body, contentType := multipartBody(t, "file", "big.mp4", bytes.Repeat([]byte("x"), 4096), nil)
	req := httptest.NewRequest(http.MethodPost, BasePath+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if conv.lastReq.FileName != "" {
		t.Fatal("converter should not see oversize uploads")
	}
}

func TestPanicRecovered(t *testing.T) {
	srv := newTestServer(&stubConverter{panics: true}, nil, Options{})
	body, contentType := multipartBody(t, "file", "clip.mp4", []byte("v"), nil)
	req := httptest.NewRequest(http.MethodPost, BasePath+"/audio", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if msg := decodeError(t, w.Body); strings.Contains(msg, "exploded") {
		t.Fatalf("panic detail leaked: %q", msg)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubConverter{}, nil, Options{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath+"/audio", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	hist := &stubHistory{entries: []history.Entry{{ID: "1", Kind: "audio", Status: history.StatusSucceeded}}}
	srv := newTestServer(&stubConverter{}, hist, Options{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath+"/history?limit=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload api.HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Entries) != 1 || hist.limit != 5 {
		t.Fatalf("unexpected response %+v (limit %d)", payload, hist.limit)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath+"/history?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

type blockingConverter struct {
	stubConverter
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (c *blockingConverter) ConvertToText(ctx context.Context, req convert.Request) (convert.Transcript, error) {
	n := c.active.Add(1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-c.release
	c.active.Add(-1)
	return convert.Transcript{FileName: req.FileName}, nil
}

func TestConcurrencyCeiling(t *testing.T) {
	conv := &blockingConverter{release: make(chan struct{})}
	srv := httptest.NewServer(newTestServer(conv, nil, Options{MaxConcurrent: 2}).Handler())
	defer srv.Close()

	done := make(chan int, 4)
	for i := 0; i < 4; i++ {
		body, contentType := multipartBody(t, "file", "talk.mp4", []byte("v"), nil)
		go func() {
			resp, err := http.Post(srv.URL+BasePath+"/text", contentType, body)
			if err != nil {
				done <- 0
				return
			}
			_ = resp.Body.Close()
			done <- resp.StatusCode
		}()
	}
	deadline := time.After(5 * time.Second)
	for conv.active.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("requests never reached the converter")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(conv.release)
	for i := 0; i < 4; i++ {
		if code := <-done; code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
	}
	if peak := conv.peak.Load(); peak > 2 {
		t.Fatalf("concurrency ceiling exceeded: %d", peak)
	}
}

func TestStartAndStop(t *testing.T) {
	srv := newTestServer(&stubConverter{}, nil, Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + BasePath)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cancel()
	srv.Stop()
}

// pipelineRunner fakes ffmpeg by writing bytes to the output argument.
type pipelineRunner struct{}

func (pipelineRunner) Run(_ context.Context, tool string, args []string, _ time.Duration) toolexec.Result {
	if err := os.WriteFile(args[len(args)-1], []byte("audio"), 0o600); err != nil {
		return toolexec.Result{Tool: tool, Started: true, ExitCode: 1, Message: err.Error()}
	}
	return toolexec.Result{Tool: tool, Started: true, Succeeded: true}
}

type silentEngine struct{}

func (silentEngine) Name() string { return "silent" }

func (silentEngine) Transcribe(context.Context, string) (transcribe.Result, error) {
	return transcribe.Result{}, nil
}

func TestEndToEndWithPipeline(t *testing.T) {
	dir := t.TempDir()
	ws, err := workspace.NewManager(dir, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	pipeline := convert.New(convert.Config{Transcoder: "ffmpeg"}, ws, pipelineRunner{}, silentEngine{}, logging.NewNop())
	srv := newTestServer(pipeline, nil, Options{})

	body, contentType := multipartBody(t, "file", "empty.mp4", nil, nil)
	req := httptest.NewRequest(http.MethodPost, BasePath+"/text", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero-byte upload, got %d", w.Code)
	}
	if msg := decodeError(t, w.Body); msg != "No video file provided" {
		t.Fatalf("unexpected message %q", msg)
	}

	body, contentType = multipartBody(t, "file", "silent.mp4", []byte("video"), nil)
	req = httptest.NewRequest(http.MethodPost, BasePath+"/text", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload api.Transcription
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Transcription != convert.NoSpeechText || payload.WordCount != 7 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no temp assets left, found %d", len(entries))
	}
}
