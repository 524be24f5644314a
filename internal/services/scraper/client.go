package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"golang.org/x/time/rate"
)

// Client fetches HTML pages politely: fixed user agent, per-host request
// pacing, bounded response bodies.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval rate.Limit
}

// NewClient creates a scrape client from scraper configuration.
func NewClient(config *common.ScraperConfig, logger arbor.ILogger) *Client {
	interval := rate.Inf
	if config.RequestDelay > 0 {
		interval = rate.Every(config.RequestDelay)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		userAgent: config.UserAgent,
		maxBody:   int64(config.MaxBodySize),
		limiters:  make(map[string]*rate.Limiter),
		interval:  interval,
	}
}

// hostLimiter returns the rate limiter for a host, creating it on first use.
func (c *Client) hostLimiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, exists := c.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(c.interval, 1)
		c.limiters[host] = limiter
	}
	return limiter
}

// FetchHTML fetches a URL and parses the response body as an HTML document.
func (c *Client) FetchHTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	if err := c.hostLimiter(parsed.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body := io.Reader(resp.Body)
	if c.maxBody > 0 {
		body = io.LimitReader(resp.Body, c.maxBody)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}

	return doc, nil
}
