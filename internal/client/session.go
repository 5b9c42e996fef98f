package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"

	"github.com/Belphemur/EpisodeHarvester/internal/apperrors"
	"github.com/Belphemur/EpisodeHarvester/internal/cache"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/metrics"
	"github.com/Belphemur/EpisodeHarvester/internal/parser"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	UserAgent      string
	AcceptLanguage string
	// Retries is the number of extra attempts for a page fetch that failed with a
	// transport error, a 5xx or a 429.
	Retries      int
	RetryBackoff time.Duration
	PollInterval time.Duration
}

// Session renders pages for one worker. It owns its HTTP client and cookies and must
// not be shared between goroutines that navigate concurrently.
type Session struct {
	httpClient *http.Client
	pages      cache.Cache
	ownsPages  bool // pages is closed with the session
	opts       SessionOptions
	retry      retrypolicy.RetryPolicy[[]byte]
	logger     zerolog.Logger
}

// statusError is a non-2xx page response.
type statusError struct {
	url    string
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.status, e.url)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// NewSession creates a session. pages may be nil to disable page caching.
func NewSession(id int, httpClient *http.Client, pages cache.Cache, opts SessionOptions) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}

	logger := config.GetLogger().With().Int("worker", id).Logger()

	retry := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			var se *statusError
			if errors.As(err, &se) {
				return se.retryable()
			}
			// Not-found is final; anything else is a transport failure.
			return !errors.Is(err, &apperrors.ErrResourceNotFound{})
		}).
		WithMaxRetries(max(opts.Retries, 0)).
		WithBackoff(opts.RetryBackoff, 8*opts.RetryBackoff).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[[]byte]) {
			metrics.PageFetchesTotal.WithLabelValues("retry").Inc()
			logger.Warn().Err(e.LastError()).Int("attempt", e.Attempts()).Msg("Retrying page fetch")
		}).
		Build()

	return &Session{
		httpClient: httpClient,
		pages:      pages,
		opts:       opts,
		retry:      retry,
		logger:     logger,
	}
}

// Navigate loads url and returns the parsed page, serving it from the page cache when possible.
func (s *Session) Navigate(ctx context.Context, url string) (parser.Document, error) {
	return s.load(ctx, url, true)
}

// WaitFor loads url and, while selector matches nothing, re-fetches the page every
// PollInterval until it does or timeout elapses. The cache is bypassed for re-fetches.
// An exhausted wait returns ErrElementNotFound.
func (s *Session) WaitFor(ctx context.Context, url, selector string, timeout time.Duration) (parser.Document, error) {
	deadline := time.Now().Add(timeout)

	doc, err := s.load(ctx, url, true)
	for {
		if err != nil {
			return nil, err
		}
		if len(doc.Find(selector)) > 0 {
			return doc, nil
		}
		if !time.Now().Add(s.opts.PollInterval).Before(deadline) {
			s.logger.Debug().Str("url", url).Str("selector", selector).Dur("timeout", timeout).Msg("Bounded wait elapsed")
			return nil, apperrors.NewElementNotFoundError(selector, url)
		}

		timer := time.NewTimer(s.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		doc, err = s.load(ctx, url, false)
	}
}

// Close releases idle connections held by the session's client and the page cache
// the session owns.
func (s *Session) Close() {
	s.httpClient.CloseIdleConnections()
	if s.ownsPages && s.pages != nil {
		if err := s.pages.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close session page cache")
		}
	}
}

func (s *Session) load(ctx context.Context, url string, useCache bool) (parser.Document, error) {
	if useCache && s.pages != nil {
		if body, ok := s.pages.Get(ctx, url); ok {
			s.logger.Debug().Str("url", url).Msg("Page served from cache")
			return parser.NewDocumentFromString(string(body), url)
		}
	}

	body, err := failsafe.With[[]byte](s.retry).WithContext(ctx).Get(func() ([]byte, error) {
		return s.fetch(ctx, url)
	})
	if err != nil {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PageFetchesTotal.WithLabelValues("success").Inc()

	doc, err := parser.NewDocumentFromString(string(body), url)
	if err != nil {
		return nil, err
	}
	if s.pages != nil {
		s.pages.Set(ctx, url, body)
	}
	return doc, nil
}

// fetch performs one GET and returns the body decoded to UTF-8.
func (s *Session) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	if s.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", s.opts.AcceptLanguage)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &apperrors.ErrResourceNotFound{URL: url}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{url: url, status: resp.StatusCode}
	}

	utf8Body, err := parser.NewUTF8Reader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Body); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}

	s.logger.Debug().Str("url", url).Int("bytes", buf.Len()).Msg("Fetched page")
	return buf.Bytes(), nil
}
