// internal/common/httpx/client.go
package httpx

import (
	"context"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

// NewClient builds a shared HTTP client. A zero timeout leaves deadline
// control entirely to the request context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
