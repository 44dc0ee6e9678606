package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

// httpPublisher POSTs events as JSON to a configured endpoint.
type httpPublisher struct {
	id      string
	url     string
	headers map[string]string
	client  httpclient.Client
	log     logger.Logger
}

// newHTTPPublisher creates an HTTP sink publisher.
func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	if cfg.HTTP.Method != httpDefaultMethod {
		return nil, fmt.Errorf("http publisher %q supports POST only, got %q", cfg.ID, cfg.HTTP.Method)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range cfg.HTTP.Headers {
		headers[k] = v
	}

	return &httpPublisher{
		id:      cfg.ID,
		url:     cfg.HTTP.URL,
		headers: headers,
		client:  httpclient.NewRestyClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:     ensureLogger(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish POSTs the event body; any non-2xx response is a failure.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	resp, err := p.client.Post(ctx, p.url, p.headers, payload)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("http sink returned status %d", resp.StatusCode())
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"feed":   evt.Feed,
		"status": resp.StatusCode(),
	})
	return nil
}
