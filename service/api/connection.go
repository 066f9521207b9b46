package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client  *http.Client
	host    string
	limiter *rate.Limiter
}

type Client struct {
	Connection Connection
	ApiKey     string
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	if conn.limiter != nil {
		if err := conn.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", conn.host, err)
		}
	}

	endpoint.Scheme = "https"
	endpoint.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", conn.host, err)
	}

	return conn.client.Do(req)
}

// ClientFactory builds a client for host. requestsPerMinute <= 0 disables pacing.
func ClientFactory(host string, apiKey string, timeout time.Duration, requestsPerMinute int) *Client {
	client := &http.Client{
		Timeout: timeout,
	}

	clientHost := &ClientHost{
		client: client,
		host:   host,
	}
	if requestsPerMinute > 0 {
		clientHost.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}
}
