package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response exposes the parts of an HTTP response the pipeline consumes.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs HTTP requests with per-call headers. Implementations
// return a Response for any status code; only transport-level failures
// produce an error.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (Response, error)
}

// restyClient implements Client over a shared resty.Client.
type restyClient struct {
	c *resty.Client
}

// NewRestyClient builds a Client with the given request timeout. The
// underlying client is safe to share across a whole run.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	return &restyClient{c: c}
}

func (r *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := r.c.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}

func (r *restyClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (Response, error) {
	resp, err := r.c.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}

// restyResponse adapts a resty response to the Response interface.
type restyResponse struct {
	resp *resty.Response
}

func (r restyResponse) StatusCode() int { return r.resp.StatusCode() }
func (r restyResponse) Body() []byte    { return r.resp.Body() }
