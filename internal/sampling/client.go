// internal/sampling/client.go
package sampling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"mcp-food-diary/internal/models"
)

type Config struct {
	ProxyURL string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client asks an OpenRouter gateway, reached through the MCP proxy, for
// completions.
type Client struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		proxyURL: strings.TrimSuffix(cfg.ProxyURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
	}
}

// Complete returns the model's completion text. Every failure is a
// *models.ModelCallError.
func (c *Client) Complete(ctx context.Context, req models.ModelRequest) (string, error) {
	completionRequest := map[string]interface{}{
		"model":         c.model,
		"system_prompt": req.SystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": userContent(req),
			},
		},
		"max_tokens":  800,
		"temperature": 0.1,
	}

	text, err := c.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return "", &models.ModelCallError{Err: err}
	}
	return unwrapCompletion(text), nil
}

func userContent(req models.ModelRequest) interface{} {
	if req.ImageRef == "" {
		return req.UserPrompt
	}
	return []map[string]interface{}{
		{"type": "text", "text": req.UserPrompt},
		{"type": "image_url", "image_url": map[string]string{"url": req.ImageRef}},
	}
}

func (c *Client) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", c.proxyURL)

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("gateway returned invalid JSON")
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return "", fmt.Errorf("gateway error: %s", msg.String())
	}

	text := gjson.GetBytes(body, "result.content.0.text")
	if text.Type != gjson.String {
		return "", fmt.Errorf("unexpected response format")
	}
	return text.String(), nil
}

// unwrapCompletion strips the gateway's {"content": "..."} envelope when
// present; anything else is already the completion.
func unwrapCompletion(text string) string {
	trimmed := strings.TrimSpace(text)
	if !gjson.Valid(trimmed) {
		return text
	}
	for _, key := range []string{"content", "completion", "choices.0.message.content"} {
		if v := gjson.Get(trimmed, key); v.Type == gjson.String {
			return v.String()
		}
	}
	return text
}
