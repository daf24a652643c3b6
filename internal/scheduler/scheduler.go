// Package scheduler is the bounded parallel worker pool: run a DAG
// level-by-level, a bounded number of tasks in flight at once,
// cooperative cancellation; on cancellation no further task is started
// and the caller discards the results that carry ctx.Err(). SmokeRunner
// scenario execution is its only user; emitter atom execution and
// ComplianceValidator constraint extraction do not run through it.
// Grounded on the
// *shape* of the teacher's `internal/core/shard_manager_core.go`/
// `shard_manager_spawn.go`/`spawn_queue.go` spawn-queue (bounded
// concurrent dispatch with a cancellable context per unit of work) —
// `internal/core` itself was scoped out of this build before this
// package was written, so this is a reconstruction of that pattern's
// shape, not a copy of its chat-agent dispatch surface.
package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work submitted to a Pool. id is used purely for
// result correlation and error messages.
type Task struct {
	ID string
	Run func(ctx context.Context) error
}

// Result is one Task's outcome.
type Result struct {
	ID  string
	Err error
}

// Pool runs Tasks with at most Concurrency in flight at once.
type Pool struct {
	Concurrency int
}

// New returns a Pool bounded to concurrency workers. concurrency <= 0
// is treated as 1 (sequential execution is always a valid schedule).
func New(concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{Concurrency: concurrency}
}

// RunLevel executes every task in tasks with up to p.Concurrency
// workers, and returns once all have finished or ctx is cancelled. On
// cancellation, in-flight workers run to completion of their current
// Task (they are expected to check ctx themselves for early exit) but
// no new task in this level is started, and the caller is expected to
// discard results for tasks whose Result carries ctx.Err().
func (p *Pool) RunLevel(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.Concurrency)
	for i, t := range tasks {
		if ctx.Err() != nil {
			results[i] = Result{ID: t.ID, Err: ctx.Err()}
			continue
		}

		i, t := i, t
		g.Go(func() error {
			if t.Run == nil {
				results[i] = Result{ID: t.ID, Err: fmt.Errorf("scheduler: task %q has no Run func", t.ID)}
				return nil
			}
			results[i] = Result{ID: t.ID, Err: t.Run(ctx)}
			return nil
		})
	}
	g.Wait()
	return results
}

// RunDAG executes levels in sequence (level i+1 only starts once level
// i has fully returned), running each level's tasks under RunLevel. It
// stops scheduling further levels once ctx is cancelled: a cancelled
// run stops scheduling new work rather than unwinding what's in flight.
func (p *Pool) RunDAG(ctx context.Context, levels [][]Task) [][]Result {
	out := make([][]Result, len(levels))
	for i, level := range levels {
		select {
		case <-ctx.Done():
			out[i] = make([]Result, len(level))
			for j, t := range level {
				out[i][j] = Result{ID: t.ID, Err: ctx.Err()}
			}
			continue
		default:
		}
		out[i] = p.RunLevel(ctx, level)
	}
	return out
}

// AnyFailed reports whether any Result in results carries a non-nil
// error.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Errors collects every non-nil error from results, in order.
func Errors(results []Result) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ID, r.Err))
		}
	}
	return errs
}
