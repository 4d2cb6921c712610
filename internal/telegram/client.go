package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/slipconv/internal/api"
)

// ConverterClient calls the converter-service /convert endpoint.
type ConverterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewConverterClient creates a client. Conversions drive a browser, so the
// timeout should cover several minutes.
func NewConverterClient(baseURL string, timeout time.Duration) *ConverterClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ConverterClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ConvertError is a non-200 answer of the converter service.
type ConvertError struct {
	Status   int
	Response api.ErrorResponse
}

func (e *ConvertError) Error() string {
	if e.Response.Error != "" {
		return e.Response.Error
	}
	return fmt.Sprintf("converter service returned status %d", e.Status)
}

// Convert posts a booking code and returns the converted slip.
func (c *ConverterClient) Convert(ctx context.Context, bookingCode string) (*api.ConvertResponse, error) {
	body, err := json.Marshal(map[string]string{"booking_code": bookingCode})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to converter service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		ce := &ConvertError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, &ce.Response)
		return nil, ce
	}

	var out api.ConvertResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}
