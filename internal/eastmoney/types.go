// Package eastmoney provides a client for the Eastmoney market-data endpoints.
// This package centralizes all upstream data-source interactions for the application.
package eastmoney

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithQuoteBaseURL sets a custom base URL for the push2 quote endpoints.
func WithQuoteBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.quoteBaseURL = baseURL
	}
}

// WithDataBaseURL sets a custom base URL for the data-center endpoints.
func WithDataBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.dataBaseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestGap sets the minimum interval between outbound requests.
func WithRequestGap(gap time.Duration) ClientOption {
	return func(c *Client) {
		if gap > 0 {
			c.limiter = rate.NewLimiter(rate.Every(gap), 1)
		}
	}
}

// WithJitter sets the maximum random jitter (milliseconds) added after each
// rate-limiter wait.
func WithJitter(maxMS int) ClientOption {
	return func(c *Client) {
		c.jitterMaxMS = maxMS
	}
}

// APIError represents an error response from an Eastmoney endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eastmoney API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}
