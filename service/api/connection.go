package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client *http.Client
	scheme string
	host   string
}

type Client struct {
	Connection Connection
	ApiKey     string
}

// Request points the relative endpoint at the configured host and issues a GET bound to ctx
func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	endpoint.Scheme = conn.scheme
	endpoint.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", endpoint.Path, err)
	}

	res, err := conn.client.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("error requesting %s, status %s", endpoint.Path, res.Status)
	}

	return res, nil
}

// ClientFactory builds a client for baseUrl, a bare host is treated as https
func ClientFactory(baseUrl string, apiKey string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("error parsing base url %s: %w", baseUrl, err)
	}

	clientHost := &ClientHost{
		client: &http.Client{Timeout: timeout},
		scheme: parsed.Scheme,
		host:   parsed.Host,
	}

	if parsed.Host == "" {
		clientHost.scheme = "https"
		clientHost.host = baseUrl
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}, nil
}
