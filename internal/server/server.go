package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"videoconverter/internal/api"
	"videoconverter/internal/convert"
	"videoconverter/internal/history"
	"videoconverter/internal/logging"
)

// BasePath prefixes every route.
const BasePath = "/api/videoconverter"

const (
	defaultMaxUpload       = 500 << 20
	defaultShutdownTimeout = 30 * time.Second
	multipartMemory        = 32 << 20
)

// Converter runs conversions. *convert.Pipeline satisfies it.
type Converter interface {
	ConvertToAudio(ctx context.Context, req convert.Request) (convert.AudioArtifact, error)
	ConvertToText(ctx context.Context, req convert.Request) (convert.Transcript, error)
}

// StatusFunc builds the /status payload.
type StatusFunc func(ctx context.Context) api.Status

// HistoryLister reads recorded conversions. *history.Store satisfies it.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr            string
	Version         string
	MaxUploadBytes  int64
	MaxConcurrent   int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end.
type Server struct {
	opts      Options
	converter Converter
	status    StatusFunc
	history   HistoryLister
	logger    *slog.Logger
	slots     chan struct{}
	handler   http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a Server. history may be nil when the log is disabled.
func New(opts Options, converter Converter, status StatusFunc, hist HistoryLister, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if strings.TrimSpace(opts.Version) == "" {
		opts.Version = "dev"
	}
	s := &Server{
		opts:      opts,
		converter: converter,
		status:    status,
		history:   hist,
		logger:    logging.NewComponentLogger(logger, "http"),
		slots:     make(chan struct{}, opts.MaxConcurrent),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath, s.handleInfo)
	mux.HandleFunc("GET "+BasePath+"/status", s.handleStatus)
	mux.HandleFunc("GET "+BasePath+"/history", s.handleHistory)
	mux.Handle("POST "+BasePath+"/audio", s.limit(http.HandlerFunc(s.handleAudio)))
	mux.Handle("POST "+BasePath+"/text", s.limit(http.HandlerFunc(s.handleText)))
	return s.withRequestID(s.accessLog(s.recoverPanic(mux)))
}

// Start listens on the configured address and serves in the background.
// The server shuts down when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	writeTimeout := time.Duration(0)
	if s.opts.RequestTimeout > 0 {
		writeTimeout = s.opts.RequestTimeout + time.Minute
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("http server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for up to the shutdown timeout.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown incomplete", logging.Error(err))
		_ = srv.Close()
		return
	}
	s.logger.Info("http server stopped")
}

// Run starts the server and blocks until ctx ends and shutdown completes.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}
