package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport sends outbound content to a user, addressed by external id.
type Transport interface {
	SendText(ctx context.Context, externalID int64, text string) error
	SendFile(ctx context.Context, externalID int64, filePath string) error
}

// GatewayConfig holds the message gateway settings.
type GatewayConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// HTTPTransport delivers through the message gateway's REST API.
type HTTPTransport struct {
	config     GatewayConfig
	httpClient *http.Client
}

// NewHTTPTransport creates a gateway transport. Pass nil to use a default
// client with the configured timeout.
func NewHTTPTransport(config GatewayConfig, httpClient *http.Client) *HTTPTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &HTTPTransport{
		config:     config,
		httpClient: httpClient,
	}
}

func (t *HTTPTransport) SendText(ctx context.Context, externalID int64, text string) error {
	return t.post(ctx, "/v1/messages", map[string]interface{}{
		"recipient_id": externalID,
		"text":         text,
	})
}

func (t *HTTPTransport) SendFile(ctx context.Context, externalID int64, filePath string) error {
	return t.post(ctx, "/v1/files", map[string]interface{}{
		"recipient_id": externalID,
		"file_path":    filePath,
	})
}

func (t *HTTPTransport) post(ctx context.Context, path string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.config.Token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, excerpt)
	}
	return nil
}
