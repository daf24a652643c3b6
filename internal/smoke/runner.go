package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cogc/internal/scheduler"
)

// tracebackMarker is the heuristic used to pull a server-side stack
// trace out of a response body for violation attribution.
const tracebackMarker = "Traceback (most recent call last)"

// Caller is the HTTP surface Runner drives; satisfied by *http.Client
// in production and a fake in tests.
type Caller interface {
	Do(req *http.Request) (*http.Response, error)
}

// Runner executes a TestsIR scenario battery against a deployed service.
type Runner struct {
	BaseURL string
	Client  Caller
	Pool    *scheduler.Pool
}

// NewRunner returns a Runner with a bounded concurrency pool: independent
// scenarios execute concurrently with a concurrency cap.
func NewRunner(baseURL string, client Caller, concurrency int) *Runner {
	return &Runner{BaseURL: baseURL, Client: client, Pool: scheduler.New(concurrency)}
}

// outcome is one scenario's raw execution result, captured before
// being folded into a Violation or a pass.
type outcome struct {
	scenario   Scenario
	status     int
	body       string
	err        error
	passed     bool
}

// Run executes scenarios sequentially in dependency order: independent
// scenarios within one "wave" run concurrently under r.Pool, and a
// scenario naming a DependsOn only runs once its dependency has
// already passed. A scenario whose dependency failed is skipped as a
// violation of its own (its parent never reached a state it could
// build on).
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) SmokeResult {
	passed := make(map[string]bool, len(scenarios))
	var violations []Violation
	var logs strings.Builder
	remaining := append([]Scenario(nil), scenarios...)

	for len(remaining) > 0 {
		var wave []Scenario
		var next []Scenario
		for _, s := range remaining {
			if s.DependsOn == "" || passed[s.DependsOn] {
				wave = append(wave, s)
				continue
			}
			// dependency hasn't resolved yet (or failed); hold for next pass
			next = append(next, s)
		}
		if len(wave) == 0 {
			// every remaining scenario is waiting on a dependency that will
			// never pass (it already failed) — record each as a violation.
			for _, s := range remaining {
				violations = append(violations, Violation{
					Endpoint:     s.Path,
					ScenarioName: s.Name,
					ErrorType:    "DEPENDENCY_FAILED",
					FlowID:       s.FlowID,
				})
			}
			break
		}

		mutating, independent := splitMutating(wave)
		var outcomes []outcome
		outcomes = append(outcomes, r.runIndependent(ctx, independent)...)
		for _, s := range mutating {
			outcomes = append(outcomes, r.execute(ctx, s))
		}

		for _, o := range outcomes {
			if o.passed {
				passed[o.scenario.Name] = true
				continue
			}
			violations = append(violations, r.toViolation(o))
		}
		logScenarioWave(&logs, outcomes)
		remaining = next
	}

	passedCount := len(passed)
	return NewSmokeResult(len(scenarios), passedCount, violations, logs.String(), nil)
}

// splitMutating separates a wave into scenarios the runner must
// serialize (they mutate shared fixture state) and scenarios safe to
// run concurrently: mutating scenarios that share fixture state must
// never run in parallel with each other.
func splitMutating(wave []Scenario) (mutating, independent []Scenario) {
	for _, s := range wave {
		if s.Mutating {
			mutating = append(mutating, s)
		} else {
			independent = append(independent, s)
		}
	}
	return mutating, independent
}

func (r *Runner) runIndependent(ctx context.Context, scenarios []Scenario) []outcome {
	if len(scenarios) == 0 {
		return nil
	}
	results := make([]outcome, len(scenarios))
	tasks := make([]scheduler.Task, len(scenarios))
	for i, s := range scenarios {
		i, s := i, s
		tasks[i] = scheduler.Task{ID: s.Name, Run: func(ctx context.Context) error {
			results[i] = r.execute(ctx, s)
			return results[i].err
		}}
	}
	r.Pool.RunLevel(ctx, tasks)
	return results
}

func (r *Runner) execute(ctx context.Context, s Scenario) outcome {
	ctx, cancel := scheduler.WithDeadline(ctx, scheduler.SmokeScenarioDeadline)
	defer cancel()

	var body io.Reader
	if s.Payload != nil {
		b, _ := json.Marshal(s.Payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, s.Method, r.BaseURL+s.Path, body)
	if err != nil {
		return outcome{scenario: s, err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return outcome{scenario: s, err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	o := outcome{scenario: s, status: resp.StatusCode, body: string(respBody)}
	o.passed = resp.StatusCode == s.ExpectedStatus
	return o
}

func (r *Runner) toViolation(o outcome) Violation {
	errType := "UNEXPECTED_STATUS"
	if o.err != nil {
		errType = "TRANSPORT_ERROR"
	}
	return Violation{
		Endpoint:       o.scenario.Path,
		ScenarioName:   o.scenario.Name,
		ExpectedStatus: o.scenario.ExpectedStatus,
		ActualStatus:   o.status,
		ErrorType:      errType,
		StackTrace:     parseStackTrace(o.body),
		FlowID:         o.scenario.FlowID,
	}
}

// parseStackTrace pulls a Python traceback out of a response body, if
// present — used to attach server-side logs to a failing violation.
func parseStackTrace(body string) string {
	idx := strings.Index(body, tracebackMarker)
	if idx < 0 {
		return ""
	}
	return body[idx:]
}

func logScenarioWave(w io.Writer, outcomes []outcome) {
	for _, o := range outcomes {
		status := "PASS"
		if !o.passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s %s -> %d (want %d)\n", status, o.scenario.Method, o.scenario.Path, o.status, o.scenario.ExpectedStatus)
	}
}
