package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/ideascout/pkg/textproc"
	"golang.org/x/time/rate"
)

// Config controls outbound HTTP behavior. All fetches share one rate
// limiter so concurrent search branches cannot stampede external sites.
type Config struct {
	Timeout    time.Duration
	UserAgent  string
	RateLimit  float64 // requests per second
	MaxRetries int
	RetryDelay time.Duration
}

type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Client {
	return NewWithConfig(Config{})
}

// Get fetches the URL, retrying transient failures with exponential
// backoff up to MaxRetries attempts.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("error fetching %s (after %d attempts): %w", url, c.config.MaxRetries, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Server-side errors are worth retrying, client errors are not.
		return nil, resp.StatusCode >= 500, fmt.Errorf("received status code %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

// PostJSON posts the body as JSON and returns the raw response body.
// POST requests are never retried.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// ReadableText fetches a page and returns its visible text with script
// and style content stripped and whitespace collapsed.
func (c *Client) ReadableText(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	doc.Find("script").Remove()
	doc.Find("style").Remove()

	return textproc.Clean(doc.Find("body").Text()), nil
}
