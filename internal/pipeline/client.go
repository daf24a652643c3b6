package pipeline

import (
	"context"
	"strings"

	"cogc/internal/llmclient"
	"cogc/internal/usage"
)

// trackingClient wraps an llmclient.Client so every completion call is
// recorded into the run's usage.Tracker — the generation manifest's
// "tokens used (LLM only)" field and the pipeline-wide usage roll-up
// both derive from this one accounting point.
type trackingClient struct {
	inner   llmclient.Client
	tracker *usage.Tracker
}

func newTrackingClient(inner llmclient.Client, tracker *usage.Tracker) llmclient.Client {
	return &trackingClient{inner: inner, tracker: tracker}
}

func (t *trackingClient) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	resp, err := t.inner.Complete(ctx, req)
	if err != nil {
		return resp, err
	}
	info, _ := ctx.Value(runInfoKey{}).(usage.RunSlotInfo)
	stratum, op := info.Stratum, "emit"
	if strings.HasPrefix(req.Slot, "repair.") {
		stratum, op = "repair", "repair"
	}
	runCtx := usage.WithRunContext(ctx, usage.RunSlotInfo{RunID: info.RunID, Stratum: stratum, SlotName: req.Slot})
	t.tracker.Track(runCtx, resp.Model, "", resp.TokensIn, resp.TokensOut, op)
	return resp, nil
}

// runInfoKey is the context key a pipeline Run stashes its
// usage.RunSlotInfo skeleton under, so trackingClient can complete it
// with the per-call slot name without threading usage through every
// caller between the pipeline and the emitter.
type runInfoKey struct{}
