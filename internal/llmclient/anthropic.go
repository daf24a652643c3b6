package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cogc/internal/config"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1/messages"

// anthropicClient drives the Anthropic Messages API directly over
// net/http, matching the teacher's own hand-rolled client_anthropic.go
// (no corpus repo vendors an Anthropic SDK).
type anthropicClient struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	baseURL    string
}

func newAnthropicClient(cfg config.LLMConfig) *anthropicClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultAnthropicBaseURL
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &anthropicClient{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	prompt := req.UserPrompt
	if len(req.Schema) > 0 {
		prompt = fmt.Sprintf("%s\n\nRespond with JSON matching exactly this schema:\n%s", prompt, req.Schema)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     c.cfg.Model,
		System:    req.SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient: encoding anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmclient: building anthropic request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llmclient: anthropic request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("llmclient: reading anthropic response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llmclient: anthropic returned status %d: %s", httpResp.StatusCode, raw)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("llmclient: decoding anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("llmclient: anthropic response had no content blocks")
	}

	return &Response{
		JSON:      json.RawMessage(parsed.Content[0].Text),
		Model:     c.cfg.Model,
		TokensIn:  parsed.Usage.InputTokens,
		TokensOut: parsed.Usage.OutputTokens,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}
