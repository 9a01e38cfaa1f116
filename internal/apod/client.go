// Package apod talks to NASA's Astronomy Picture of the Day API, the
// remote image source behind the discovery engine.
package apod

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/lewtec/stargaze/internal/domain"
)

// DefaultBaseURL is the public APOD endpoint.
const DefaultBaseURL = "https://api.nasa.gov/planetary/apod"

// FeedStartDate is the first APOD ever published.
const FeedStartDate = "1995-06-16"

// Client fetches image records from the APOD API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a Client against the public endpoint.
func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
	}
}

// Fetch requests the record for date (ISO YYYY-MM-DD), or the feed's
// "today" record when date is empty. Transport and decode problems
// come back as errors; a response without a date is returned as-is
// for the engine to judge.
func (c *Client) Fetch(ctx context.Context, date string) (*domain.ImageRecord, error) {
	query := url.Values{}
	query.Set("api_key", c.APIKey)
	if date != "" {
		query.Set("date", date)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("while building APOD request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("while requesting APOD: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("APOD returned status %d", resp.StatusCode)
	}

	var record domain.ImageRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("while decoding APOD response: %w", err)
	}
	return &record, nil
}

// Verify that Client implements domain.ImageSource
var _ domain.ImageSource = (*Client)(nil)
