// Package llmclient is the compiler's single LLM delegation surface:
// a schema-constrained structured-completion client used by the
// Stratified Emitter's LLM stratum and by RepairOrchestrator's
// generic-strategy fallback. Grounded on the shape of the teacher's
// provider factory and JSON-schema-constrained client (one factory
// selecting a provider by config, one schema-enforcing completion
// call, one provider per backend) — trimmed to the two providers this
// compiler actually drives traffic through.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cogc/internal/config"
)

// Request is one structured-completion request: a prompt plus a JSON
// schema the response must validate against. Slot is the emitter slot
// or repair strategy name issuing the request, carried through for
// audit logging and LearningStore provenance.
type Request struct {
	Slot         string
	SystemPrompt string
	UserPrompt   string
	Schema       json.RawMessage
}

// Response is one structured completion: raw JSON matching Request.Schema,
// plus accounting fields the manifest's per-file token/elapsed stats need.
type Response struct {
	JSON       json.RawMessage
	Model      string
	TokensIn   int
	TokensOut  int
	ElapsedMs  int64
}

// Client is the schema-constrained completion surface every provider implements.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// New builds a Client for cfg.Provider. Unknown providers are a
// configuration error caught at startup, not at call time.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicClient(cfg), nil
	case "gemini":
		return newGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("llmclient: unknown provider %q", cfg.Provider)
	}
}

// WithRetry wraps a Client so one transient failure is retried once
// before the caller must escalate — the Recoverable-kind LLM failure
// policy.
func WithRetry(c Client) Client {
	return &retryingClient{inner: c}
}

type retryingClient struct {
	inner Client
}

func (r *retryingClient) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := r.inner.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(250 * time.Millisecond):
	}
	return r.inner.Complete(ctx, req)
}
