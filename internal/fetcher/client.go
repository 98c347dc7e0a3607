package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flixtrack/flixtrack/internal/config"
)

// NewClient builds the resty client shared by both ranking sources.
// Transient failures retry with exponential backoff; a Retry-After
// header, when the provider sends one, overrides the computed wait.
func NewClient(cfg *config.ProviderConfig) *resty.Client {
	client := resty.New()
	client.SetTransport(newDecompressTransport())
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetTimeout(cfg.RequestTimeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetRetryWaitTime(cfg.RetryWait)
	client.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil {
			return isRetryableError(err)
		}
		return resp.StatusCode() == http.StatusTooManyRequests ||
			resp.StatusCode() >= http.StatusInternalServerError
	})
	client.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		return parseRetryAfter(resp.Header().Get("Retry-After")), nil
	})
	return client
}

// isRetryableError checks if a network error warrants another attempt.
// Context cancellation never does.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A stream cut mid-body usually means a flaky hop, not a dead host.
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}
	return false
}

// parseRetryAfter reads a Retry-After value as either integer seconds
// or an HTTP date. Zero means the header was absent or unusable, which
// falls back to the client's default backoff.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
