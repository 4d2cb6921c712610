package betpawa

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/fetch"
	"github.com/Vodeneev/slipconv/internal/pkg/metrics"
	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

const maxBookingSize = 4 << 20

// BookingClient reads slips from the booking-number API. It needs no browser.
type BookingClient struct {
	baseURL    string
	brand      string
	language   string
	userAgent  string
	httpClient *http.Client
}

func NewBookingClient(cfg config.TargetConfig) *BookingClient {
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	return &BookingClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		brand:      cfg.Brand,
		language:   cfg.Language,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout, Transport: http.DefaultTransport.(*http.Transport).Clone()},
	}
}

func (c *BookingClient) BookingURL(bookingCode string) string {
	return c.baseURL + "/api/sportsbook/v2/booking-number/" + url.PathEscape(bookingCode)
}

// GetBooking fetches the raw booking document. Single attempt.
func (c *BookingClient) GetBooking(ctx context.Context, bookingCode string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BookingURL(bookingCode), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", fetch.AcceptEncoding)
	req.Header.Set("x-pawa-brand", c.brand)
	req.Header.Set("x-pawa-language", c.language)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := fetch.ReadBody(resp, maxBookingSize)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, fetch.Truncate(string(body), 200))
	}
	return body, nil
}

// BookingFetcher is the transport BookingFeed reads from.
type BookingFetcher interface {
	GetBooking(ctx context.Context, bookingCode string) ([]byte, error)
}

// BookingFeed turns Betpawa booking codes into slips in Betpawa's vocabulary.
type BookingFeed struct {
	fetcher BookingFetcher
	metrics *metrics.Recorder
}

func NewBookingFeed(fetcher BookingFetcher, rec *metrics.Recorder) *BookingFeed {
	return &BookingFeed{fetcher: fetcher, metrics: rec}
}

func NewBookingFeedFromConfig(cfg config.TargetConfig, rec *metrics.Recorder) *BookingFeed {
	return NewBookingFeed(NewBookingClient(cfg), rec)
}

// FetchSlip fetches and parses the slip behind a Betpawa booking code.
func (f *BookingFeed) FetchSlip(ctx context.Context, bookingCode string) (models.Slip, error) {
	start := time.Now()
	body, err := f.fetcher.GetBooking(ctx, bookingCode)
	f.metrics.TargetBooking(time.Since(start))
	if err != nil {
		return models.Slip{}, fmt.Errorf("%w: %v", ErrBookingUnavailable, err)
	}
	return ParseBooking(bookingCode, body)
}
