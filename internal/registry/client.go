package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/config"
)

// Client is a typed REST client for the registry service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a registry client from configuration.
func NewClient(cfg *config.RegistryConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
	}
}

// Register publishes a card to the registry.
func (c *Client) Register(ctx context.Context, card *agentcard.Card) error {
	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal agent card: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("register request failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	return nil
}

// List fetches all registered cards in registration order.
func (c *Client) List(ctx context.Context) ([]agentcard.Card, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/list_agents", nil)
	if err != nil {
		return nil, fmt.Errorf("list agents request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var cards []agentcard.Card
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, fmt.Errorf("failed to decode agent list: %w", err)
	}
	return cards, nil
}

// Unregister removes a card by name. Returns ErrNotFound when the
// registry has no card under that name.
func (c *Client) Unregister(ctx context.Context, name string) error {
	path := "/unregister?agent_name=" + url.QueryEscape(name)
	resp, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return fmt.Errorf("unregister request failed: %w", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
}

// Health checks that the registry is reachable and serving.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
