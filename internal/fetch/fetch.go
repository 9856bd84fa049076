// Package fetch downloads source documents over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/gym-slots/internal/common"
)

// Document is a downloaded source body.
type Document struct {
	URL         string
	ContentType string
	Data        []byte
}

type Config struct {
	Timeout  time.Duration // default 30s
	MaxBytes int64         // default 32 MiB
}

type Fetcher struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 32 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// Fetch GETs url and returns the body. Transport failures, non-2xx statuses
// and bodies over MaxBytes are FetchErrors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, common.FetchError(url, 0, err)
	}
	req.Header.Set("Accept", "application/pdf, */*")

	resp, err := f.http.Do(req)
	if err != nil {
		f.logger.Error("fetch.send_error", "url", url, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Document{}, common.FetchError(url, 0, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("fetch.body_close_error", "url", url, "error", err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		f.logger.Error("fetch.bad_status", "url", url, "status", resp.StatusCode)
		return Document{}, common.FetchError(url, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return Document{}, common.FetchError(url, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return Document{}, common.FetchError(url, resp.StatusCode, fmt.Errorf("document exceeds %d bytes", f.cfg.MaxBytes))
	}

	f.logger.Info("fetch.ok",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(data),
		"content_type", resp.Header.Get("Content-Type"),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Document{URL: url, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}
