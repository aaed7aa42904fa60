package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videoconverter/internal/bootstrap"
	"videoconverter/internal/fileutil"
	"videoconverter/internal/language"
	"videoconverter/internal/logging"
	"videoconverter/internal/media"
	"videoconverter/internal/media/ffprobe"
	"videoconverter/internal/services"
	"videoconverter/internal/toolexec"
	"videoconverter/internal/transcribe"
	"videoconverter/internal/workspace"
)

// Runner executes external tools. *toolexec.Invoker satisfies it.
type Runner interface {
	Run(ctx context.Context, tool string, args []string, timeout time.Duration) toolexec.Result
}

// Dependencies reports bootstrap readiness. *bootstrap.Registry satisfies it.
type Dependencies interface {
	EnsureReady(ctx context.Context, name string) (bootstrap.State, error)
}

// Recorder receives a Report after every run.
type Recorder interface {
	RecordConversion(ctx context.Context, report Report) error
}

// Config holds the pipeline's tool paths and limits.
type Config struct {
	Transcoder string
	// FFprobe is optional; inspection is skipped when empty.
	FFprobe      string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// Pipeline runs conversions. It is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	workspace *workspace.Manager
	runner    Runner
	engine    transcribe.Engine
	deps      Dependencies
	detector  *language.Detector
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithDependencies gates transcoding and recognition on bootstrap readiness.
func WithDependencies(deps Dependencies) Option {
	return func(p *Pipeline) { p.deps = deps }
}

// WithRecorder registers a recorder for run reports.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLanguageDetector fills in the transcript language when the engine
// reports none.
func WithLanguageDetector(d *language.Detector) Option {
	return func(p *Pipeline) { p.detector = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a Pipeline.
func New(cfg Config, ws *workspace.Manager, runner Runner, engine transcribe.Engine, logger *slog.Logger, opts ...Option) *Pipeline {
	if strings.TrimSpace(cfg.Transcoder) == "" {
		cfg.Transcoder = "ffmpeg"
	}
	p := &Pipeline{
		cfg:       cfg,
		workspace: ws,
		runner:    runner,
		engine:    engine,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run dispatches on req.Kind and folds the result into an Outcome.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	switch req.Kind {
	case OutputAudio:
		artifact, err := p.ConvertToAudio(ctx, req)
		if err != nil {
			return Outcome{Failure: AsFailure(err)}
		}
		return Outcome{Audio: &artifact}
	case OutputText:
		transcript, err := p.ConvertToText(ctx, req)
		if err != nil {
			return Outcome{Failure: AsFailure(err)}
		}
		return Outcome{Transcript: &transcript}
	default:
		return Outcome{Failure: newFailure(InvalidInput, fmt.Sprintf("Unsupported output kind %q", req.Kind), nil)}
	}
}

// ConvertToAudio extracts the audio track of req in the requested format.
// The returned error is always a *Failure.
func (p *Pipeline) ConvertToAudio(ctx context.Context, req Request) (artifact AudioArtifact, err error) {
	ctx, cancel := p.begin(ctx, "audio")
	defer cancel()
	started := p.now()
	defer func() {
		err = p.finish(ctx, req, OutputAudio, started, recover(), err, func(r *Report) {
			r.Format = artifact.Format
			r.OutputBytes = int64(len(artifact.Data))
		})
	}()
	return p.convertToAudio(ctx, req)
}

// ConvertToText transcribes the speech in req. The returned error is always
// a *Failure.
func (p *Pipeline) ConvertToText(ctx context.Context, req Request) (transcript Transcript, err error) {
	ctx, cancel := p.begin(ctx, "text")
	defer cancel()
	started := p.now()
	defer func() {
		err = p.finish(ctx, req, OutputText, started, recover(), err, func(r *Report) {
			r.Format = media.TextFormats()[0]
			r.WordCount = transcript.WordCount
			r.Language = transcript.Language
			r.OutputBytes = int64(len(transcript.Text))
		})
	}()
	return p.convertToText(ctx, req)
}

func (p *Pipeline) convertToAudio(ctx context.Context, req Request) (AudioArtifact, error) {
	source, err := openSource(req)
	if err != nil {
		return AudioArtifact{}, err
	}
	if err := validateVideoName(req.FileName); err != nil {
		return AudioArtifact{}, err
	}
	formatName := strings.TrimSpace(req.AudioFormat)
	if formatName == "" {
		formatName = media.DefaultAudioFormat
	}
	format, ok := media.LookupAudioFormat(formatName)
	if !ok {
		return AudioArtifact{}, newFailure(InvalidInput, fmt.Sprintf("Unsupported audio format %q. Supported formats: %s",
			formatName, strings.Join(media.AudioFormats(), ", ")), nil)
	}
	if err := p.ensure(ctx, bootstrap.DependencyTranscoder, msgTranscoderGone, ConversionFailed); err != nil {
		return AudioArtifact{}, err
	}

	scope := p.workspace.Scope()
	defer scope.Close()

	input, err := p.persist(scope, source, req.FileName)
	if err != nil {
		return AudioArtifact{}, err
	}
	output, err := scope.Acquire(workspace.KindOutput, format.Extension)
	if err != nil {
		return AudioArtifact{}, newFailure(InternalFault, msgInternal, err)
	}

	if err := p.transcode(ctx, media.AudioSpec(input.Path, output.Path, format), ConversionFailed, msgConversion); err != nil {
		return AudioArtifact{}, err
	}
	data, err := os.ReadFile(output.Path)
	if err != nil {
		return AudioArtifact{}, newFailure(InternalFault, msgInternal, err)
	}
	if len(data) == 0 {
		return AudioArtifact{}, newFailure(ConversionFailed, msgConversion,
			services.Wrap(services.ErrExternalTool, "transcoding", p.cfg.Transcoder, "empty output", nil))
	}

	artifact := AudioArtifact{
		Data:        data,
		ContentType: format.ContentType,
		FileName:    media.ReplaceExtension(req.FileName, format.Extension),
		Format:      format.Name,
	}
	if probe, ok := p.inspect(ctx, output.Path); ok {
		artifact.Duration = probe.Duration()
	}
	return artifact, nil
}

func (p *Pipeline) convertToText(ctx context.Context, req Request) (Transcript, error) {
	source, err := openSource(req)
	if err != nil {
		return Transcript{}, err
	}
	if err := validateVideoName(req.FileName); err != nil {
		return Transcript{}, err
	}
	if err := p.ensure(ctx, bootstrap.DependencyTranscoder, msgTranscoderGone, AudioExtractionFailed); err != nil {
		return Transcript{}, err
	}

	scope := p.workspace.Scope()
	defer scope.Close()

	input, err := p.persist(scope, source, req.FileName)
	if err != nil {
		return Transcript{}, err
	}

	streamIndex := -1
	if probe, ok := p.inspect(ctx, input.Path); ok {
		if probe.AudioStreamCount() == 0 {
			return Transcript{}, newFailure(AudioExtractionFailed, msgNoAudioTrack,
				services.Wrap(services.ErrValidation, "inspecting", "ffprobe", "no audio streams", nil))
		}
		if stream, ok := probe.PrimaryAudio(); ok {
			streamIndex = stream.Index
		}
	}

	speech, err := scope.Acquire(workspace.KindIntermediateAudio, ".wav")
	if err != nil {
		return Transcript{}, newFailure(InternalFault, msgInternal, err)
	}
	if err := p.transcode(ctx, media.SpeechSpec(input.Path, speech.Path, streamIndex), AudioExtractionFailed, msgExtraction); err != nil {
		return Transcript{}, err
	}
	if !fileutil.NonEmptyFile(speech.Path) {
		return Transcript{}, newFailure(AudioExtractionFailed, msgExtraction,
			services.Wrap(services.ErrExternalTool, "extracting", p.cfg.Transcoder, "empty output", nil))
	}
	// The upload is no longer needed once the speech track exists.
	scope.Release(input)

	if err := p.ensure(ctx, bootstrap.DependencySpeechModel, msgSpeechModelGone, TranscriptionFailed); err != nil {
		return Transcript{}, err
	}

	result, err := p.engine.Transcribe(services.WithStage(ctx, "transcribing"), speech.Path)
	if err != nil {
		if ctx.Err() != nil {
			return Transcript{}, newFailure(TranscriptionFailed, msgTimedOut, err)
		}
		return Transcript{}, newFailure(TranscriptionFailed, msgTranscription, err)
	}

	text, segments := transcribe.Render(result.Segments)
	if strings.TrimSpace(text) == "" {
		text, segments = NoSpeechText, 0
	}
	lang := result.Language
	if lang == "" && segments > 0 && p.detector != nil {
		lang, _ = p.detector.Detect(plainText(result.Segments))
	}

	return Transcript{
		FileName:     media.BaseName(req.FileName),
		Text:         text,
		SegmentCount: segments,
		WordCount:    len(strings.Fields(text)),
		Language:     lang,
		ProcessedAt:  p.now().UTC(),
	}, nil
}

func (p *Pipeline) begin(ctx context.Context, operation string) (context.Context, context.CancelFunc) {
	ctx = services.WithOperation(ctx, operation)
	if p.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, p.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// finish converts panics and stray errors into failures, logs the run, and
// hands a report to the recorder.
func (p *Pipeline) finish(ctx context.Context, req Request, kind OutputKind, started time.Time, recovered any, err error, fill func(*Report)) error {
	logger := logging.WithContext(ctx, p.logger)
	if recovered != nil {
		err = newFailure(InternalFault, msgInternal, fmt.Errorf("panic: %v", recovered))
	}
	failure := AsFailure(err)
	requestID, _ := services.RequestIDFromContext(ctx)

	report := Report{
		RequestID:   requestID,
		Kind:        kind,
		FileName:    media.BaseName(req.FileName),
		Format:      strings.ToLower(strings.TrimSpace(req.AudioFormat)),
		Failure:     failure,
		Duration:    p.now().Sub(started),
		CompletedAt: p.now().UTC(),
	}
	if failure == nil {
		fill(&report)
	}

	attrs := []slog.Attr{
		logging.String("kind", string(kind)),
		logging.String("file", report.FileName),
		slog.Duration("elapsed", report.Duration),
	}
	switch {
	case failure == nil:
		attrs = append(attrs, slog.Int64("output_bytes", report.OutputBytes))
		logger.Info("conversion completed", logging.Args(attrs...)...)
	case failure.Kind == InvalidInput:
		logger.Info("conversion rejected", logging.Args(append(attrs, logging.String("reason", failure.Message))...)...)
	case failure.Kind == InternalFault:
		logger.Error("conversion fault", logging.Args(append(attrs, logging.Error(failure.Err))...)...)
	default:
		logger.Warn("conversion failed", logging.Args(append(attrs,
			logging.String("failure_kind", string(failure.Kind)),
			logging.Error(failure.Err))...)...)
	}

	if p.recorder != nil {
		if recErr := p.recorder.RecordConversion(context.WithoutCancel(ctx), report); recErr != nil {
			logger.Warn("conversion history write failed", logging.Error(recErr))
		}
	}
	if failure == nil {
		return nil
	}
	return failure
}

// ensure waits for a dependency. A request that times out or is cancelled
// while the dependency is still acquiring fails with timeoutKind, not
// DependencyUnavailable: the dependency itself may yet become Ready.
func (p *Pipeline) ensure(ctx context.Context, name, message string, timeoutKind FailureKind) error {
	if p.deps == nil {
		return nil
	}
	state, err := p.deps.EnsureReady(ctx, name)
	if ctxErr := ctx.Err(); ctxErr != nil && state != bootstrap.StateFailed {
		return newFailure(timeoutKind, msgTimedOut,
			services.Wrap(services.ErrTimeout, "bootstrap", name, "waiting for dependency", ctxErr))
	}
	if err != nil {
		return newFailure(DependencyUnavailable, message, err)
	}
	if state != bootstrap.StateReady {
		return newFailure(DependencyUnavailable, message,
			services.Wrap(services.ErrDependency, "bootstrap", name, "state "+state.String(), nil))
	}
	return nil
}

func (p *Pipeline) persist(scope *workspace.Scope, source io.Reader, fileName string) (workspace.Asset, error) {
	ext := strings.ToLower(filepath.Ext(media.BaseName(fileName)))
	input, err := scope.Acquire(workspace.KindInput, ext)
	if err != nil {
		return workspace.Asset{}, newFailure(InternalFault, msgInternal, err)
	}
	written, err := fileutil.WriteStream(input.Path, source)
	if err != nil {
		return workspace.Asset{}, newFailure(InternalFault, msgInternal, fmt.Errorf("persist upload: %w", err))
	}
	if written == 0 {
		return workspace.Asset{}, newFailure(InvalidInput, msgNoFile, nil)
	}
	return input, nil
}

func (p *Pipeline) transcode(ctx context.Context, spec media.TranscodeSpec, kind FailureKind, message string) error {
	run := p.runner.Run(ctx, p.cfg.Transcoder, spec.Args(), 0)
	if run.Succeeded {
		return nil
	}
	logging.WithContext(ctx, p.logger).Warn("transcoder failed",
		slog.Int("exit_code", run.ExitCode),
		logging.String("stderr", run.StderrTail(10)),
	)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		message = msgTimedOut
	} else if !run.Started {
		message = msgTranscoderGone
	}
	return newFailure(kind, message, run.Err())
}

func (p *Pipeline) inspect(ctx context.Context, path string) (ffprobe.Result, bool) {
	if strings.TrimSpace(p.cfg.FFprobe) == "" {
		return ffprobe.Result{}, false
	}
	result, err := ffprobe.Inspect(ctx, p.runner, p.cfg.FFprobe, path, p.cfg.ProbeTimeout)
	if err != nil {
		logging.WithContext(ctx, p.logger).Debug("media inspection skipped", logging.Error(err))
		return ffprobe.Result{}, false
	}
	return result, true
}

func openSource(req Request) (io.Reader, error) {
	if req.Source == nil || req.Size == 0 || strings.TrimSpace(media.BaseName(req.FileName)) == "" {
		return nil, newFailure(InvalidInput, msgNoFile, nil)
	}
	buffered := bufio.NewReader(req.Source)
	if _, err := buffered.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newFailure(InvalidInput, msgNoFile, nil)
		}
		return nil, newFailure(InternalFault, msgInternal, fmt.Errorf("read upload: %w", err))
	}
	return buffered, nil
}

func validateVideoName(name string) error {
	if media.IsVideoFile(name) {
		return nil
	}
	return newFailure(InvalidInput, "Unsupported file type. Supported extensions: "+strings.Join(media.VideoExtensions(), ", "), nil)
}

func plainText(segments []transcribe.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
