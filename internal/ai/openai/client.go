package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"docscan-backend/internal/ai"
	"docscan-backend/internal/shared/telemetry"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements ai.VisionClient using OpenAI Chat Completions with image
// inputs. Credentials arrive per call; the client only owns the HTTP transport.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a new OpenAI vision client.
func NewClient() *Client {
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("AI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the image and prompt and returns the raw text completion.
func (c *Client) Complete(ctx context.Context, cfg ai.Config, req ai.Request) (string, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", fmt.Errorf("openai: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return "", fmt.Errorf("openai: model is required")
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MimeType, base64.StdEncoding.EncodeToString(req.ImageData))

	temp := float32(0)
	body := chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: req.Prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		Temperature: &temp,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode response (http status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai: http status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}

	if parsed.Usage != nil {
		telemetry.Info("openai.usage", map[string]any{
			"model":             cfg.Model,
			"prompt_tokens":     parsed.Usage.PromptTokens,
			"completion_tokens": parsed.Usage.CompletionTokens,
			"total_tokens":      parsed.Usage.TotalTokens,
		})
	}

	return parsed.Choices[0].Message.Content, nil
}

var _ ai.VisionClient = (*Client)(nil)
