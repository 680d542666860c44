package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 120 * time.Second
	systemPrompt   = "You are a legal document analyst. Respond with a single JSON object and nothing else."
)

// Client implements llm.Client using OpenAI Chat Completions in JSON mode.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. An empty baseURL targets the public API.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required: %w", llm.ErrNotConfigured)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
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

func (c *Client) Provider() string { return "openai" }
func (c *Client) Model() string    { return c.model }

// Generate sends one chat completion and returns the assistant content.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	// gpt-5 models only accept the default temperature.
	if !isGPT5(c.model) {
		temp := float32(0.2)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", llm.TransportError("openai", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", llm.TransportError("openai", err)
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if parseErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", llm.StatusError("openai", resp.StatusCode, msg)
	}
	// Past this point the body is kept with the error so it can be inspected.
	raw := string(body)
	if parseErr != nil {
		return raw, fmt.Errorf("openai response parse: %w: %v", llm.ErrBadResponse, parseErr)
	}
	if parsed.Error != nil {
		return raw, fmt.Errorf("openai error: %s (%s): %w", parsed.Error.Message, parsed.Error.Type, llm.ErrRejected)
	}
	if len(parsed.Choices) == 0 {
		return raw, fmt.Errorf("openai response missing choices: %w", llm.ErrBadResponse)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return raw, fmt.Errorf("openai response empty content: %w", llm.ErrBadResponse)
	}

	fields := map[string]interface{}{
		"provider":      "openai",
		"model":         c.model,
		"finish_reason": parsed.Choices[0].FinishReason,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
