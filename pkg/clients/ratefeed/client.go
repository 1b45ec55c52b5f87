package ratefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/goldquote/internal/domain/models"
)

const maxRedirects = 10

// Client performs GET requests against one fixed rate endpoint.
type Client struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a feed client for url. Redirects are followed.
func NewClient(url string, timeout time.Duration) *Client {
	restyClient := resty.New()
	restyClient.
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeader("Accept", "text/plain, application/json, */*").
		SetTimeout(timeout)

	return &Client{
		httpClient: restyClient,
		url:        url,
	}
}

// Fetch returns the raw response whatever its status. Only transport problems are errors.
func (c *Client) Fetch(ctx context.Context) (*models.FeedResponse, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("get rate feed %s: %w", c.url, err)
	}

	return &models.FeedResponse{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}

// URL returns the endpoint this client reads from.
func (c *Client) URL() string {
	return c.url
}
