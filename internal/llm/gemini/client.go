// Package gemini talks to the Gemini generateContent REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 120 * time.Second
	scope          = "https://www.googleapis.com/auth/generative-language"
)

// Client implements llm.Client against Gemini.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Options configures a Client. Without an APIKey the client falls back to
// application default credentials.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := &http.Client{Timeout: timeout}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		ts, err := google.DefaultTokenSource(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("GEMINI_API_KEY is empty and no default credentials found: %w: %v", llm.ErrNotConfigured, err)
		}
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout}), ts)
		httpClient.Timeout = timeout
	}

	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float32 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *Client) Provider() string { return "gemini" }
func (c *Client) Model() string    { return c.model }

// Generate sends the prompt as a single user turn and joins the text parts
// of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.2,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", llm.TransportError("gemini", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", llm.TransportError("gemini", err)
	}

	var parsed generateResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if parseErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", llm.StatusError("gemini", resp.StatusCode, msg)
	}
	// Past this point the body is kept with the error so it can be inspected.
	raw := string(body)
	if parseErr != nil {
		return raw, fmt.Errorf("gemini response parse: %w: %v", llm.ErrBadResponse, parseErr)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return raw, fmt.Errorf("gemini blocked prompt: %s: %w", parsed.PromptFeedback.BlockReason, llm.ErrRejected)
	}
	if len(parsed.Candidates) == 0 {
		return raw, fmt.Errorf("gemini response missing candidates: %w", llm.ErrBadResponse)
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return raw, fmt.Errorf("gemini response empty content (finish=%s): %w", parsed.Candidates[0].FinishReason, llm.ErrBadResponse)
	}

	fields := map[string]interface{}{
		"provider":      "gemini",
		"model":         c.model,
		"finish_reason": parsed.Candidates[0].FinishReason,
	}
	if u := parsed.UsageMetadata; u != nil {
		fields["prompt_tokens"] = u.PromptTokenCount
		fields["completion_tokens"] = u.CandidatesTokenCount
		fields["total_tokens"] = u.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return text, nil
}

var _ llm.Client = (*Client)(nil)
