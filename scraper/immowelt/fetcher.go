package immowelt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"immo-tracker/utils"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 * 1024 * 1024

// ErrFetchFailed is returned once every attempt for a URL has failed.
var ErrFetchFailed = errors.New("fetch failed")

// PageFetcher retrieves the HTML of one URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherConfig configures an HTTPFetcher.
type FetcherConfig struct {
	UserAgent     string
	Timeout       time.Duration
	Delay         time.Duration
	RetryAttempts int
}

// HTTPFetcher is a PageFetcher with a per-request timeout, a fixed politeness
// delay before each attempt and linear backoff between retries.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(cfg FetcherConfig, logger *utils.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			Delay:       cfg.Delay,
			Logger:      logger,
		},
	}
}

// WithSleep replaces the wait function, for tests.
func (f *HTTPFetcher) WithSleep(sleep utils.SleepFunc) *HTTPFetcher {
	f.retry.Sleep = sleep
	return f
}

// Fetch returns the body of a 2xx response. After the attempt budget is
// spent it returns an error wrapping ErrFetchFailed; callers treat that as
// absent data.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var body string
	err := f.retry.Do(ctx, "GET "+url, func(ctx context.Context) error {
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.logger.Error("[fetcher] Giving up on %s: %v", url, err)
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
