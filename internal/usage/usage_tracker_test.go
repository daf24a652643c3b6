package usage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestTracker_TrackAggregatesAndPersists(t *testing.T) {
	ws := t.TempDir()
	tracker, err := NewTracker(ws)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	ctx := WithRunContext(context.Background(), RunSlotInfo{RunID: "run_1", Stratum: "llm", SlotName: "service.create_widget"})
	tracker.Track(ctx, "gemini-2.5-pro", "gemini", 10, 5, "emit")
	tracker.Track(ctx, "gemini-2.5-pro", "gemini", 2, 3, "emit")

	stats := tracker.Stats()
	if stats.TotalRun.Input != 12 || stats.TotalRun.Output != 8 || stats.TotalRun.Total != 20 {
		t.Fatalf("TotalRun=%+v, want input=12 output=8 total=20", stats.TotalRun)
	}
	if got := stats.ByProvider["gemini"]; got.Total != 20 {
		t.Fatalf("ByProvider[gemini]=%+v, want total=20", got)
	}
	if got := stats.ByModel["gemini-2.5-pro"]; got.Total != 20 {
		t.Fatalf("ByModel[gemini-2.5-pro]=%+v, want total=20", got)
	}
	if got := stats.ByStratum["llm"]; got.Total != 20 {
		t.Fatalf("ByStratum[llm]=%+v, want total=20", got)
	}
	if got := stats.ByOperation["emit"]; got.Total != 20 {
		t.Fatalf("ByOperation[emit]=%+v, want total=20", got)
	}
	if got := stats.ByRun["run_1"]; got.Total != 20 {
		t.Fatalf("ByRun[run_1]=%+v, want total=20", got)
	}

	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(ws, ".cogc", "usage.json"))
	if err != nil {
		t.Fatalf("read usage.json: %v", err)
	}
	var persisted UsageData
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal usage.json: %v", err)
	}
	if persisted.Aggregate.TotalRun.Total != 20 {
		t.Fatalf("persisted total=%d, want 20", persisted.Aggregate.TotalRun.Total)
	}
}

func TestTracker_ContextHelpers(t *testing.T) {
	ws := t.TempDir()
	tracker, err := NewTracker(ws)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	ctx := NewContext(context.Background(), tracker)
	if got := FromContext(ctx); got == nil {
		t.Fatalf("FromContext returned nil")
	}
	if got := FromContext(ctx); got != tracker {
		t.Fatalf("FromContext mismatch")
	}
}
