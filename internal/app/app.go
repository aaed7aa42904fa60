package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"videoconverter/internal/api"
	"videoconverter/internal/bootstrap"
	"videoconverter/internal/config"
	"videoconverter/internal/convert"
	"videoconverter/internal/deps"
	"videoconverter/internal/history"
	"videoconverter/internal/language"
	"videoconverter/internal/logging"
	"videoconverter/internal/media"
	"videoconverter/internal/preflight"
	"videoconverter/internal/server"
	"videoconverter/internal/toolexec"
	"videoconverter/internal/transcribe"
	"videoconverter/internal/workspace"
)

// serveLockName guards the temp directory so a second server cannot sweep
// files a running one still owns.
const serveLockName = ".videoconverter.lock"

// ErrServerRunning reports that another server holds the temp directory.
var ErrServerRunning = errors.New("another videoconverter server is using this temp directory")

// App is the assembled converter.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Invoker   *toolexec.Invoker
	Workspace *workspace.Manager
	Registry  *bootstrap.Registry
	Engine    transcribe.Engine
	Pipeline  *convert.Pipeline
	// History is nil when the conversion log is disabled.
	History *history.Store
}

// New assembles an App from cfg. Callers must Close it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	ws, err := workspace.NewManager(cfg.Paths.TempDir, logger)
	if err != nil {
		return nil, err
	}
	invoker := toolexec.New(logger)
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Invoker:   invoker,
		Workspace: ws,
		Registry:  BuildRegistry(cfg, logger),
		Engine:    BuildEngine(cfg, invoker, logger),
	}

	if cfg.History.Enabled {
		retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
		store, err := history.Open(ctx, cfg.Paths.HistoryDB, retention)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.History = store
	}

	opts := []convert.Option{convert.WithDependencies(a.Registry)}
	if a.History != nil {
		opts = append(opts, convert.WithRecorder(a.History))
	}
	if cfg.Recognition.DetectLanguage {
		opts = append(opts, convert.WithLanguageDetector(language.NewDetector()))
	}
	a.Pipeline = convert.New(convert.Config{
		Transcoder:   cfg.TranscoderBinary(),
		FFprobe:      cfg.FFprobeBinary(),
		Timeout:      cfg.RequestTimeout(),
		ProbeTimeout: cfg.ProbeTimeout(),
	}, ws, invoker, a.Engine, logger, opts...)
	return a, nil
}

// Close releases the history database.
func (a *App) Close() error {
	if a == nil || a.History == nil {
		return nil
	}
	return a.History.Close()
}

// BuildRegistry registers the dependencies the configuration needs. In the
// local environment every dependency is treated as provisioned.
func BuildRegistry(cfg *config.Config, logger *slog.Logger) *bootstrap.Registry {
	fetcher := bootstrap.NewHTTPFetcher(cfg.DownloadTimeout(), logger)
	common := []bootstrap.Option{
		bootstrap.WithAttempts(cfg.Bootstrap.Attempts),
		bootstrap.WithRetryDelay(cfg.RetryDelay()),
	}
	if cfg.IsLocal() {
		common = append(common, bootstrap.AlwaysReady())
	}

	registry := bootstrap.NewRegistry()
	if cfg.ModelRequired() {
		registry.Add(bootstrap.New(bootstrap.Dependency{
			Name: bootstrap.DependencySpeechModel,
			URL:  cfg.Recognition.ModelURL,
			Path: cfg.ModelPath(),
		}, fetcher, logger, common...))
	}
	if cfg.TranscoderBootstrapped() {
		registry.Add(bootstrap.New(bootstrap.Dependency{
			Name:       bootstrap.DependencyTranscoder,
			URL:        cfg.Transcoder.DownloadURL,
			Path:       cfg.TranscoderBinary(),
			Executable: true,
		}, fetcher, logger, common...))
	}
	return registry
}

// BuildEngine selects the recognition engine.
func BuildEngine(cfg *config.Config, runner transcribe.Runner, logger *slog.Logger) transcribe.Engine {
	if cfg.Recognition.Engine == config.EngineOpenAI {
		return transcribe.NewOpenAI(transcribe.OpenAIConfig{
			APIKey:   cfg.Recognition.OpenAIAPIKey,
			Model:    cfg.Recognition.OpenAIModel,
			BaseURL:  cfg.Recognition.OpenAIBaseURL,
			Language: cfg.Recognition.Language,
		}, logger)
	}
	return transcribe.NewWhisperCPP(transcribe.WhisperCPPConfig{
		Binary:    cfg.Recognition.Command,
		ModelPath: cfg.ModelPath(),
		Language:  cfg.Recognition.Language,
		Threads:   cfg.Recognition.Threads,
	}, runner, logger)
}

// Status builds the /status payload.
func (a *App) Status(ctx context.Context) api.Status {
	tools := preflight.CheckSystemDeps(a.Config)
	toolStatus := make([]api.ToolStatus, 0, len(tools))
	for _, t := range tools {
		toolStatus = append(toolStatus, api.ToolStatus{
			Name:        t.Name,
			Command:     t.Executable(),
			Description: t.Description,
			Optional:    t.Optional,
			Available:   t.Available(),
			Detail:      t.Detail,
		})
	}
	return api.Status{
		ToolAvailable:            a.Invoker.Probe(ctx, a.Config.TranscoderBinary(), a.Config.ProbeTimeout()),
		SupportedInputExtensions: media.VideoExtensions(),
		SupportedAudioOutputs:    media.AudioFormats(),
		SupportedTextOutputs:     media.TextFormats(),
		Environment:              a.Config.Server.Environment,
		Engine:                   a.Engine.Name(),
		Dependencies:             api.FromSnapshots(a.Registry.Snapshots()),
		Tools:                    toolStatus,
	}
}

// Bootstrap acquires every registered dependency and waits for all of them
// to settle. retry clears Failed dependencies first.
func (a *App) Bootstrap(ctx context.Context, retry bool) []bootstrap.Snapshot {
	if retry {
		if n := a.Registry.Reset(); n > 0 {
			a.Logger.Info("reset failed dependencies", slog.Int("count", n))
		}
	}
	a.Registry.Start(ctx)
	return a.Registry.WaitAll(ctx)
}

// ConvertFile runs the pipeline over a file on disk.
func (a *App) ConvertFile(ctx context.Context, path string, kind convert.OutputKind, format string) convert.Outcome {
	a.Registry.Start(ctx)
	file, err := os.Open(path)
	if err != nil {
		return convert.Outcome{Failure: &convert.Failure{Kind: convert.InvalidInput, Message: "No video file provided", Err: err}}
	}
	defer file.Close()

	size := int64(-1)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	return a.Pipeline.Run(ctx, convert.Request{
		Source:      file,
		FileName:    filepath.Base(path),
		Size:        size,
		Kind:        kind,
		AudioFormat: format,
	})
}

// Serve runs the HTTP server until ctx ends.
func (a *App) Serve(ctx context.Context, version string) error {
	lock := flock.New(filepath.Join(a.Workspace.Dir(), serveLockName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock temp directory: %w", err)
	}
	if !locked {
		return ErrServerRunning
	}
	defer func() { _ = lock.Unlock() }()

	if removed, err := a.Workspace.Sweep(a.Config.RequestTimeout()); err != nil {
		a.Logger.Warn("temp sweep failed", logging.Error(err))
	} else if removed > 0 {
		a.Logger.Info("removed stale temp files", slog.Int("count", removed))
	}

	for _, check := range preflight.Failed(preflight.RunAll(ctx, a.Config)) {
		a.Logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}
	for _, tool := range deps.Missing(preflight.CheckSystemDeps(a.Config)) {
		// A bootstrapped transcoder appears once the registry fetches it.
		if tool.Name == "FFmpeg" && a.Config.TranscoderBootstrapped() {
			continue
		}
		a.Logger.Warn("required tool missing",
			logging.String("tool", tool.Name),
			logging.String("detail", tool.Detail),
		)
	}
	a.Registry.Start(ctx)

	a.Logger.Info("videoconverter starting",
		logging.String("environment", a.Config.Server.Environment),
		logging.String("engine", a.Engine.Name()),
		logging.String("transcoder", a.Config.TranscoderBinary()),
		logging.String("temp_dir", a.Workspace.Dir()),
	)

	var hist server.HistoryLister
	if a.History != nil {
		hist = a.History
	}
	srv := server.New(server.Options{
		Addr:            a.Config.ListenAddress(),
		Version:         version,
		MaxUploadBytes:  a.Config.MaxUploadBytes(),
		MaxConcurrent:   a.Config.Server.MaxConcurrent,
		RequestTimeout:  a.Config.RequestTimeout(),
		ShutdownTimeout: a.Config.ShutdownTimeout(),
	}, a.Pipeline, a.Status, hist, a.Logger)
	return srv.Run(ctx)
}
