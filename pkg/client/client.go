package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dharakkkk/GithubAssistant/internal/domain"
)

// Client is the API client for GithubAssistant
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a non-200 answer from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Message)
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// ListRepositories retrieves the non-fork repositories of a user with their branches
func (c *Client) ListRepositories(ctx context.Context, username string) ([]domain.RepoDetails, error) {
	path := "/repositories/" + url.PathEscape(username)

	var details []domain.RepoDetails
	if err := c.get(ctx, path, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// errorMessage extracts the message of an error body, which uses
// "message" or "Message" depending on the failure
func errorMessage(body []byte) string {
	var payload struct {
		Message       string `json:"message"`
		LegacyMessage string `json:"Message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.LegacyMessage
}
