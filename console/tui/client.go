package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kioskagent/types"
)

// ConsoleClient talks to the kiosk daemon's HTTP surface.
type ConsoleClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewConsoleClient creates a client for the kiosk daemon at baseURL.
func NewConsoleClient(baseURL string) *ConsoleClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &ConsoleClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// GetStatus fetches the current status snapshot.
func (c *ConsoleClient) GetStatus() (types.Status, error) {
	var status types.Status

	resp, err := c.httpClient.Get(c.baseURL + "/status")
	if err != nil {
		return status, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("status fetch: %d", resp.StatusCode)
	}

	err = json.NewDecoder(resp.Body).Decode(&status)
	return status, err
}

// SendEvent posts one control event.
func (c *ConsoleClient) SendEvent(event map[string]interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+"/event", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event rejected: %d", resp.StatusCode)
	}
	return nil
}
