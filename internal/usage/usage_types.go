package usage

import "time"

// UsageData is the root structure persisted to the manifest's usage
// section — the generation manifest requires tokens used
// (LLM only) per file; this is the pipeline-wide roll-up of that same
// accounting across every LLM call in one compile/repair run.
type UsageData struct {
	Version   string          `json:"version"`
	Events    []UsageEvent    `json:"events,omitempty"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// UsageEvent is one LLM transaction: one emitter slot fill, or one
// repair strategy's LLMFallback call.
type UsageEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Model         string    `json:"model"`
	Provider      string    `json:"provider"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	Stratum       string    `json:"stratum"`        // "llm" for slot fills, "repair" for LLMFallback
	SlotName      string    `json:"slot_name"`      // emitter slot id or repair strategy name
	RunID         string    `json:"run_id"`         // pipeline run this event belongs to
	OperationType string    `json:"operation_type"` // "emit", "repair"
}

// AggregatedStats holds counters broken down by various dimensions.
type AggregatedStats struct {
	TotalRun    TokenCounts            `json:"total_run"`
	ByProvider  map[string]TokenCounts `json:"by_provider"`
	ByModel     map[string]TokenCounts `json:"by_model"`
	ByStratum   map[string]TokenCounts `json:"by_stratum"`
	ByOperation map[string]TokenCounts `json:"by_operation"`
	ByRun       map[string]TokenCounts `json:"by_run"`
}

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64   `json:"input"`
	Output int64   `json:"output"`
	Total  int64   `json:"total"`
	Cost   float64 `json:"cost_est_usd,omitempty"`
}

func (tc *TokenCounts) Add(input, output int) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}
