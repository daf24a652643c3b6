package llmclient

import (
	"context"
	"fmt"
	"time"

	"cogc/internal/config"
	"google.golang.org/genai"
)

// geminiClient drives Gemini through google.golang.org/genai, the one
// LLM SDK the teacher's go.mod actually vendors.
type geminiClient struct {
	cfg config.LLMConfig
}

func newGeminiClient(cfg config.LLMConfig) *geminiClient {
	return &geminiClient{cfg: cfg}
}

func (c *geminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("llmclient: creating genai client: %w", err)
	}

	prompt := req.UserPrompt
	if len(req.Schema) > 0 {
		prompt = fmt.Sprintf("%s\n\nRespond with JSON matching exactly this schema:\n%s", prompt, req.Schema)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	genCfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("llmclient: gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("llmclient: gemini returned empty response")
	}

	var tokensIn, tokensOut int
	if resp.UsageMetadata != nil {
		tokensIn = int(resp.UsageMetadata.PromptTokenCount)
		tokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &Response{
		JSON:      []byte(text),
		Model:     c.cfg.Model,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}
