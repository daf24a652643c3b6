package scheduler

import (
	"context"
	"time"
)

// Per-suspension-point deadlines. RepairCycleDeadline bounds a whole
// pipeline Run and SmokeScenarioDeadline bounds each smoke scenario;
// LLMCallDeadline and DockerBuildDeadline are defined here but no
// caller applies them, and no LLM call is streamed.
const (
	LLMCallDeadline      = 120 * time.Second
	DockerBuildDeadline  = 300 * time.Second
	SmokeScenarioDeadline = 30 * time.Second
	RepairCycleDeadline  = 15 * time.Minute
)

// WithDeadline returns a derived context bounded by d and its cancel
// func, for a caller about to make one suspending call.
func WithDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
