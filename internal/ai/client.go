package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gitmax/gitmax/backend/go-services/internal/config"
)

// ErrNotConfigured is returned when no API key is set; callers are expected
// to degrade to their fallback values.
var ErrNotConfigured = errors.New("openai api key not configured")

// Client calls the OpenAI responses endpoint: prompt in, plain text out.
type Client struct {
	apiKey       string
	model        string
	responsesURL string
	httpClient   *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		responsesURL: cfg.ResponsesURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Invoke sends the prompt and returns the model's output text.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrNotConfigured
	}
	requestBody, err := json.Marshal(map[string]any{
		"model": c.model,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal invoke request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.responsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material travels only in the Authorization header and is
	// never echoed in errors or logs.
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("invoke request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode invoke response: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return "", fmt.Errorf("invoke response missing output text")
	}
	return outputText, nil
}
