package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnexpectedStatus is returned for non-2xx stats responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrMissingData is returned when the body has no "data" array. An empty
// array is valid.
var ErrMissingData = errors.New("stats response has no data")

// Client fetches statistics from a running server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ StatsFetcher = (*Client)(nil)

// NewClient returns a client for the server at baseURL. A nil httpClient
// means http.DefaultClient; any timeout is the caller's to configure.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchMonthStats issues a single GET to StatsPath and decodes the body.
func (c *Client) FetchMonthStats(ctx context.Context) (MonthlyStatsResponse, error) {
	var out MonthlyStatsResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+StatsPath, nil)
	if err != nil {
		return out, fmt.Errorf("build stats request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("get %s: %w", StatsPath, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return out, fmt.Errorf("get %s: %w %d", StatsPath, ErrUnexpectedStatus, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return MonthlyStatsResponse{}, fmt.Errorf("decode stats: %w", err)
	}
	if out.Data == nil {
		return MonthlyStatsResponse{}, fmt.Errorf("decode stats: %w", ErrMissingData)
	}
	return out, nil
}
