// Package fetch implements the retrying HTTP fetcher and the staging-aware
// download used by discovery and ingestion. Downloads are resumable by
// filename: a file already present in the staging directory is trusted as
// complete and never re-fetched.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/rmacedo/cnpjsync/internal/ingestion/errors"
	"go.uber.org/zap"
)

// transientStatuses are the only HTTP statuses worth another attempt.
var transientStatuses = map[int]struct{}{
	http.StatusBadGateway:         {},
	http.StatusServiceUnavailable: {},
	http.StatusGatewayTimeout:     {},
}

// Fetcher performs GET requests with bounded retry on transient server
// errors. Only GET is supported; nothing here ever retries a non-idempotent
// method.
type Fetcher struct {
	client     *http.Client
	retryCount int
	logger     *zap.Logger

	// newBackOff is swapped in tests to avoid real waits.
	newBackOff func() backoff.BackOff
}

// NewFetcher constructs a Fetcher with a per-request timeout and a total
// attempt bound of retryCount.
func NewFetcher(timeout time.Duration, retryCount int, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		retryCount: retryCount,
		logger:     logger.Named("fetcher"),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Get fetches url and returns the full response body. Statuses 502/503/504
// are retried with exponential backoff up to the attempt bound; any other
// non-2xx status fails immediately with ErrHTTPStatus. Transport errors
// (connection refused, timeout) are not retried.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempt := 0

	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("request to %s failed: %w", url, err))
		}
		defer resp.Body.Close()

		if _, transient := transientStatuses[resp.StatusCode]; transient {
			f.logger.Warn("transient status, will retry",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt),
			)
			return fmt.Errorf("%w: %d from %s", e.ErrHTTPStatus, resp.StatusCode, url)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("%w: %d from %s", e.ErrHTTPStatus, resp.StatusCode, url))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("reading body of %s: %w", url, err))
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(f.newBackOff(), uint64(f.retryCount-1)), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}

// EnsureLocal makes sure stagingDir/filename exists, downloading it from url
// when absent. Presence of the file is the sole resumability signal: content
// is never re-validated, so a partial prior download is trusted as complete.
func (f *Fetcher) EnsureLocal(ctx context.Context, url, stagingDir, filename string) (string, bool, error) {
	destPath := filepath.Join(stagingDir, filename)
	if _, err := os.Stat(destPath); err == nil {
		f.logger.Info("file already staged, skipping download",
			zap.String("file", filename),
		)
		return destPath, true, nil
	}

	f.logger.Info("downloading", zap.String("url", url))
	body, err := f.Get(ctx, url)
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return "", false, fmt.Errorf("writing %s: %w", destPath, err)
	}
	f.logger.Info("download complete",
		zap.String("file", filename),
		zap.Int("bytes", len(body)),
	)
	return destPath, false, nil
}
