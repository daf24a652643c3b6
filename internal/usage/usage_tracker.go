// Package usage accounts for every LLM call a compile/repair run makes
// — token counts per provider, model, stratum, operation, and run —
// and persists the roll-up alongside the generation manifest. Adapted
// from the teacher's `usage_tracker.go`/`usage_types.go` token-usage
// tracker (debounced JSON persistence, dimension-keyed aggregation),
// re-keyed from its chat-shard dimensions (shard type/name, session)
// to this compiler's dimensions (stratum, slot name, pipeline run id).
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type contextKey struct{}

// runContextKey is the typed context key run metadata is threaded
// through under (replacing the teacher's stringly-typed
// context.WithValue keys, which vet flags).
type runContextKey struct{}

// RunSlotInfo is the per-call metadata WithRunContext attaches.
type RunSlotInfo struct {
	RunID    string
	Stratum  string
	SlotName string
}

// Tracker manages token usage recording and persistence for one
// pipeline run directory.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	dirty    bool
}

// NewTracker creates a usage tracker persisting under
// <workspacePath>/.cogc/usage.json.
func NewTracker(workspacePath string) (*Tracker, error) {
	dir := filepath.Join(workspacePath, ".cogc")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("usage: create state dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dir, "usage.json"),
		data: UsageData{
			Version: "1.0",
			Aggregate: AggregatedStats{
				ByProvider:  make(map[string]TokenCounts),
				ByModel:     make(map[string]TokenCounts),
				ByStratum:   make(map[string]TokenCounts),
				ByOperation: make(map[string]TokenCounts),
				ByRun:       make(map[string]TokenCounts),
			},
		},
	}
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads usage data from disk, tolerating a missing file.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &t.data); err != nil {
		return fmt.Errorf("usage: parse %s: %w", t.filePath, err)
	}

	if t.data.Aggregate.ByProvider == nil {
		t.data.Aggregate.ByProvider = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByModel == nil {
		t.data.Aggregate.ByModel = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByStratum == nil {
		t.data.Aggregate.ByStratum = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByOperation == nil {
		t.data.Aggregate.ByOperation = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByRun == nil {
		t.data.Aggregate.ByRun = make(map[string]TokenCounts)
	}
	return nil
}

// Save writes usage data to disk immediately.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Track records one LLM transaction and debounces the on-disk save.
func (t *Tracker) Track(ctx context.Context, model, provider string, input, output int, operation string) {
	info, _ := ctx.Value(runContextKey{}).(RunSlotInfo)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Aggregate.TotalRun.Add(input, output)
	addToMap(t.data.Aggregate.ByProvider, provider, input, output)
	addToMap(t.data.Aggregate.ByModel, model, input, output)
	addToMap(t.data.Aggregate.ByStratum, info.Stratum, input, output)
	addToMap(t.data.Aggregate.ByOperation, operation, input, output)
	addToMap(t.data.Aggregate.ByRun, info.RunID, input, output)

	t.data.Events = append(t.data.Events, UsageEvent{
		Timestamp:     time.Now(),
		Model:         model,
		Provider:      provider,
		InputTokens:   input,
		OutputTokens:  output,
		Stratum:       info.Stratum,
		SlotName:      info.SlotName,
		RunID:         info.RunID,
		OperationType: operation,
	})

	if !t.dirty {
		t.dirty = true
		go func() {
			time.Sleep(5 * time.Second)
			t.Save()
			t.mu.Lock()
			t.dirty = false
			t.mu.Unlock()
		}()
	}
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByStratum = copyTokenCountsMap(stats.ByStratum)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.ByRun = copyTokenCountsMap(stats.ByRun)
	return stats
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	if key == "" {
		key = "unknown"
	}
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// NewContext returns a context carrying t, retrievable via FromContext.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the Tracker placed by NewContext, or nil.
func FromContext(ctx context.Context) *Tracker {
	v, _ := ctx.Value(contextKey{}).(*Tracker)
	return v
}

// WithRunContext attaches run/stratum/slot metadata so Track can
// attribute a call without threading it through every function
// signature between the pipeline and the LLM client.
func WithRunContext(ctx context.Context, info RunSlotInfo) context.Context {
	return context.WithValue(ctx, runContextKey{}, info)
}
