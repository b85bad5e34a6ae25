package devicegw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Punch is a raw punch as delivered by the device gateway. Validation happens
// at ingestion; the gateway may re-deliver the same tuple on a sync retry.
type Punch struct {
	EmployeeID string    `json:"employee_id"`
	DeviceID   string    `json:"device_id"`
	Timestamp  time.Time `json:"timestamp"`
}

type listPunchesResponse struct {
	Punches []Punch `json:"punches"`
}

// APIError represents a non-2xx gateway reply.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("device gateway error [%d]: %s", e.StatusCode, e.Message)
}

// retryable: the gateway fronts flaky device links, 5xx is transient.
func (e *APIError) retryable() bool {
	return e.StatusCode >= 500
}

const (
	maxRetries       = 3
	baseRetryBackoff = 1 * time.Second
)

// Client is a thin JSON client for the punch/device gateway.
type Client struct {
	baseURL    string
	orgID      string
	httpClient *http.Client
}

func NewClient(baseURL string, orgID string) *Client {
	return &Client{
		baseURL: baseURL,
		orgID:   orgID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListPunches fetches punches recorded since the given instant, retrying
// transient failures up to 3 times with exponential backoff.
func (c *Client) ListPunches(ctx context.Context, since time.Time) ([]Punch, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := baseRetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		punches, err := c.listPunchesOnce(ctx, since)
		if err == nil {
			return punches, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("device gateway unreachable after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) listPunchesOnce(ctx context.Context, since time.Time) ([]Punch, error) {
	endpoint := fmt.Sprintf("%s/organizations/%s/punches?since=%s",
		c.baseURL, url.PathEscape(c.orgID), url.QueryEscape(since.UTC().Format(time.RFC3339)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach device gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var body listPunchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return body.Punches, nil
}
