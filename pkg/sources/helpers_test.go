package sources

import (
	"context"
	"fmt"

	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

// fakeResponse implements httpclient.Response for scripted outcomes.
type fakeResponse struct {
	status int
	body   []byte
}

func (r fakeResponse) StatusCode() int { return r.status }
func (r fakeResponse) Body() []byte    { return r.body }

type outcome struct {
	status int
	body   string
	err    error
}

// scriptedClient replays a fixed sequence of outcomes and records the
// requests it saw.
type scriptedClient struct {
	outcomes []outcome
	calls    int
	urls     []string
	headers  []map[string]string
}

func (c *scriptedClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	c.urls = append(c.urls, url)
	c.headers = append(c.headers, headers)
	if c.calls >= len(c.outcomes) {
		panic(fmt.Sprintf("unexpected request %d to %s", c.calls+1, url))
	}
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
