package sportybet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/fetch"
)

// maxBodySize caps a share document; real slips are a few KB.
const maxBodySize = 4 << 20

type Client struct {
	baseURL    string
	country    string
	userAgent  string
	headers    map[string]string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg config.FeedConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		country:    cfg.Country,
		userAgent:  userAgent,
		headers:    cfg.Headers,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		now:        time.Now,
	}
}

// ShareURL builds the share endpoint URL. The _t parameter is the current time
// in milliseconds; the endpoint serves stale documents without it.
func (c *Client) ShareURL(bookingCode string) string {
	return fmt.Sprintf("%s/api/%s/orders/share/%s?_t=%d",
		c.baseURL, url.PathEscape(c.country), url.PathEscape(bookingCode), c.now().UnixMilli())
}

// GetShare fetches the raw share document for a booking code. Single attempt.
func (c *Client) GetShare(ctx context.Context, bookingCode string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ShareURL(bookingCode), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := fetch.ReadBody(resp, maxBodySize)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, fetch.Truncate(string(body), 200))
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", fetch.AcceptEncoding)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Origin", c.baseURL)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
