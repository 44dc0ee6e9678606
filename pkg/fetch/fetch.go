// Package fetch wraps the HTTP client with the retry policy used by all
// feed sources: a pure classification of each outcome into a retry
// decision, plus bounded exponential backoff between attempts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

const (
	maxAttempts = 3
	backoffBase = 2 * time.Second
	backoffCap  = 20 * time.Second

	snippetMaxLen = 512
)

// ErrSkip signals that the target answered 404 and the caller should
// try its fallback source instead of treating the fetch as a failure.
var ErrSkip = errors.New("target not found")

// StatusError is returned for a terminal non-2xx response, and as the
// surfaced failure when retryable statuses exhaust the attempt budget.
type StatusError struct {
	Status  int
	Snippet string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d body: %s", e.Status, e.Snippet)
}

// IsClientError reports whether err is a StatusError in the 4xx range.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 400 && se.Status < 500
}

// Decision is the closed set of outcomes of classifying one attempt.
type Decision int

const (
	DecisionOK Decision = iota
	DecisionRetry
	DecisionSkip
	DecisionFail
)

// Classify maps a response status, or a transport failure, to a retry
// decision. Transport errors carry no response and are always retried;
// 429 and 5xx are retried; 404 becomes a skip when skipNotFound is set;
// any other 4xx is terminal.
func Classify(status int, transportErr error, skipNotFound bool) Decision {
	if transportErr != nil {
		return DecisionRetry
	}

	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return DecisionRetry
	case status == http.StatusNotFound && skipNotFound:
		return DecisionSkip
	case status >= 400:
		return DecisionFail
	}
	return DecisionOK
}

// Options bundles the fixed request parameters of one source type.
type Options struct {
	Headers map[string]string
	// SkipNotFound makes a 404 surface as ErrSkip instead of a
	// terminal client error. Set by the scrape source only.
	SkipNotFound bool
}

// Fetcher performs single GETs with retry and backoff.
type Fetcher struct {
	client httpclient.Client
	log    logger.Logger

	// Sleep waits between attempts; replaceable in tests.
	Sleep func(time.Duration)
}

// NewFetcher builds a Fetcher over the given client.
func NewFetcher(client httpclient.Client, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Fetcher{
		client: client,
		log:    log,
		Sleep:  time.Sleep,
	}
}

// Fetch GETs the URL, retrying retryable outcomes with exponential
// backoff (2s doubling, capped at 20s, 3 attempts total). When retries
// exhaust, the last failure is surfaced.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts Options) ([]byte, error) {
	delay := backoffBase
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := f.client.Get(ctx, url, opts.Headers)

		var status int
		var body []byte
		if err == nil {
			status = resp.StatusCode()
			body = resp.Body()
		}

		switch Classify(status, err, opts.SkipNotFound) {
		case DecisionOK:
			return body, nil
		case DecisionSkip:
			return nil, fmt.Errorf("%w: %s", ErrSkip, url)
		case DecisionFail:
			return nil, &StatusError{Status: status, Snippet: snippet(body)}
		case DecisionRetry:
			if err != nil {
				lastErr = fmt.Errorf("fetch %s: %w", url, err)
			} else {
				lastErr = &StatusError{Status: status, Snippet: snippet(body)}
			}
			f.log.DebugObj("retryable fetch failure", "fetch_retry", map[string]any{
				"url":     url,
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
		}

		if attempt < maxAttempts {
			f.Sleep(delay)
			delay *= 2
			if delay > backoffCap {
				delay = backoffCap
			}
		}
	}

	return nil, lastErr
}

// snippet returns a truncated response body for error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetMaxLen {
		return s[:snippetMaxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
