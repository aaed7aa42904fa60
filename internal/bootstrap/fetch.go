package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"videoconverter/internal/fileutil"
	"videoconverter/internal/logging"
	"videoconverter/internal/services"
)

const userAgent = "videoconverter-bootstrap/1"

// Fetcher copies a dependency from source to dest with the given file mode.
// Implementations must never leave a partial file at dest.
type Fetcher interface {
	Fetch(ctx context.Context, source, dest string, mode os.FileMode) (int64, error)
}

// HTTPFetcher downloads http(s) sources and copies file:// or plain local
// paths, which lets air-gapped hosts seed the cache from a mounted volume.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPFetcher builds a fetcher whose downloads are bounded by timeout.
func NewHTTPFetcher(timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "bootstrap"),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, source, dest string, mode os.FileMode) (int64, error) {
	parsed, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "bootstrap", "fetch", fmt.Sprintf("invalid source %q", source), err)
	}
	switch parsed.Scheme {
	case "http", "https":
		return f.download(ctx, parsed.String(), dest, mode)
	case "file":
		return copyLocal(parsed.Path, dest, mode)
	case "":
		return copyLocal(source, dest, mode)
	default:
		return 0, services.Wrap(services.ErrConfiguration, "bootstrap", "fetch", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
}

func (f *HTTPFetcher) download(ctx context.Context, source, dest string, mode os.FileMode) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "bootstrap", "download", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, services.Wrap(services.ErrTransient, "bootstrap", "download",
			fmt.Sprintf("%s returned %s: %s", source, resp.Status, strings.TrimSpace(string(snippet))), nil)
	}

	f.logger.Info("downloading dependency",
		logging.String("source", source),
		logging.String("dest", dest),
		slog.Int64("content_length", resp.ContentLength),
	)
	written, err := fileutil.WriteAtomic(dest, resp.Body, mode, resp.ContentLength)
	if err != nil {
		return written, services.Wrap(services.ErrTransient, "bootstrap", "download", "write "+dest, err)
	}
	f.logger.Info("download complete",
		logging.String("dest", dest),
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)),
	)
	return written, nil
}

func copyLocal(src, dest string, mode os.FileMode) (int64, error) {
	if _, err := os.Stat(src); err != nil {
		return 0, services.Wrap(services.ErrNotFound, "bootstrap", "copy", src, err)
	}
	n, err := fileutil.CopyAtomic(src, dest, mode)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "bootstrap", "copy", src, err)
	}
	return n, nil
}
