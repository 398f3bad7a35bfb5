// Package api is the HTTP client for the specimen-tracking API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fentz26/labtrack/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Endpoint paths on the remote source.
const (
	PathSamples      = "/api/samples"
	PathUpdateStatus = "/api/update-status"
	PathAddSample    = "/api/add-sample"
)

// Client wraps HTTP calls to the sample API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client. A zero timeout uses DefaultClientTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListSamples fetches the entire sample collection.
func (c *Client) ListSamples(ctx context.Context) ([]models.SampleRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathSamples, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	// Anything other than 200 is not fresh data.
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	var samples []models.SampleRecord
	if err := json.Unmarshal(body, &samples); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return samples, nil
}

// UpdateStatus sets a new status on a sample. It returns the server's message, if any.
func (c *Client) UpdateStatus(ctx context.Context, sampleID string, status models.Status) (string, error) {
	body := map[string]string{
		"sampleID":  sampleID,
		"newStatus": string(status),
	}
	return c.post(ctx, PathUpdateStatus, body)
}

// Claim marks a sample as claimed by an ED user.
func (c *Client) Claim(ctx context.Context, sampleID, claimedBy string) (string, error) {
	body := map[string]string{
		"sampleID":  sampleID,
		"claimedBy": claimedBy,
	}
	return c.post(ctx, PathUpdateStatus, body)
}

// AddSample creates a new sample.
func (c *Client) AddSample(ctx context.Context, sample models.NewSample) (string, error) {
	return c.post(ctx, PathAddSample, sample)
}

func (c *Client) post(ctx context.Context, path string, data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	var result struct {
		Message string `json:"message"`
	}
	// Success bodies are optional and informational.
	_ = json.Unmarshal(body, &result)
	return result.Message, nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from a body,
// falling back to the trimmed raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
