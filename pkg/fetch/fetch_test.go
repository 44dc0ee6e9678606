package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

// fakeResponse implements httpclient.Response.
type fakeResponse struct {
	status int
	body   []byte
}

func (r fakeResponse) StatusCode() int { return r.status }
func (r fakeResponse) Body() []byte    { return r.body }

// scriptedClient replays a fixed sequence of outcomes.
type scriptedClient struct {
	outcomes []outcome
	calls    int
	urls     []string
}

type outcome struct {
	status int
	body   string
	err    error
}

func (c *scriptedClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	c.urls = append(c.urls, url)
	out := c.outcomes[c.calls]
	c.calls++
	if out.err != nil {
		return nil, out.err
	}
	return fakeResponse{status: out.status, body: []byte(out.body)}, nil
}

func (c *scriptedClient) Post(context.Context, string, map[string]string, []byte) (httpclient.Response, error) {
	panic("not used")
}

// newTestFetcher records backoff sleeps instead of sleeping.
func newTestFetcher(client httpclient.Client) (*Fetcher, *[]time.Duration) {
	f := NewFetcher(client, nil)
	var slept []time.Duration
	f.Sleep = func(d time.Duration) { slept = append(slept, d) }
	return f, &slept
}

func TestClassify(t *testing.T) {
	transportErr := errors.New("connection reset")

	tests := []struct {
		name         string
		status       int
		err          error
		skipNotFound bool
		want         Decision
	}{
		{"success", http.StatusOK, nil, false, DecisionOK},
		{"transport failure", 0, transportErr, false, DecisionRetry},
		{"too many requests", http.StatusTooManyRequests, nil, false, DecisionRetry},
		{"server error", http.StatusBadGateway, nil, false, DecisionRetry},
		{"not found without skip", http.StatusNotFound, nil, false, DecisionFail},
		{"not found with skip", http.StatusNotFound, nil, true, DecisionSkip},
		{"forbidden", http.StatusForbidden, nil, true, DecisionFail},
		{"redirect passthrough", http.StatusMovedPermanently, nil, false, DecisionOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status, tt.err, tt.skipNotFound))
		})
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	client := &scriptedClient{outcomes: []outcome{
		{err: errors.New("timeout")},
		{status: http.StatusServiceUnavailable, body: "busy"},
		{status: http.StatusOK, body: "payload"},
	}}
	f, slept := newTestFetcher(client)

	body, err := f.Fetch(context.Background(), "https://example.com/x", Options{})
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestFetchExhaustsRetries(t *testing.T) {
	client := &scriptedClient{outcomes: []outcome{
		{status: http.StatusInternalServerError, body: "boom"},
		{status: http.StatusInternalServerError, body: "boom"},
		{status: http.StatusInternalServerError, body: "boom"},
	}}
	f, slept := newTestFetcher(client)

	_, err := f.Fetch(context.Background(), "https://example.com/x", Options{})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, 3, client.calls)
	assert.Len(t, *slept, 2)
}

func TestFetchNotFoundSkips(t *testing.T) {
	client := &scriptedClient{outcomes: []outcome{
		{status: http.StatusNotFound, body: "gone"},
	}}
	f, slept := newTestFetcher(client)

	_, err := f.Fetch(context.Background(), "https://example.com/x", Options{SkipNotFound: true})
	require.ErrorIs(t, err, ErrSkip)
	assert.Equal(t, 1, client.calls, "404 must not be retried")
	assert.Empty(t, *slept)
}

func TestFetchTerminalClientError(t *testing.T) {
	client := &scriptedClient{outcomes: []outcome{
		{status: http.StatusForbidden, body: "denied"},
	}}
	f, _ := newTestFetcher(client)

	_, err := f.Fetch(context.Background(), "https://example.com/x", Options{})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Equal(t, 1, client.calls)
}

func TestBackoffCap(t *testing.T) {
	// The three-attempt budget never reaches the cap organically; verify
	// the doubling clamps if it did.
	delay := backoffBase
	for i := 0; i < 10; i++ {
		delay *= 2
		if delay > backoffCap {
			delay = backoffCap
		}
	}
	assert.Equal(t, backoffCap, delay)
}
