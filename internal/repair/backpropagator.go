package repair

import (
	"fmt"
	"time"

	"cogc/internal/ir"
)

// IRBackpropagator is the sole writer to ApplicationIR once lowering
// has produced it: every successful repair appends one
// ir.RepairRecord under the target path its caller names. No other component may
// mutate an ApplicationIR after lowering.
type IRBackpropagator struct{}

// NewIRBackpropagator returns a backpropagator. It holds no state of
// its own — ApplicationIR.RepairHistory is the only durable record.
func NewIRBackpropagator() *IRBackpropagator { return &IRBackpropagator{} }

// Realign appends one RepairRecord to app and returns the updated IR.
// app is never mutated in place; callers must use the returned value
// as the new canonical handle, matching the "exactly one writable
// handle during repair" invariant.
func (b *IRBackpropagator) Realign(app ir.ApplicationIR, iteration int, targetPath, fixType, description string) ir.ApplicationIR {
	app.RepairHistory = append(app.RepairHistory, ir.RepairRecord{
		Iteration:   iteration,
		AppliedAt:   time.Now(),
		Description: description,
		TargetPath:  targetPath,
		FixType:     fixType,
	})
	return app
}

// RealignFromOutcome is the convenience entry point RepairOrchestrator
// calls after a strategy's fix: a failed outcome returns app unchanged;
// a successful one is recorded under targetPath as given, with the
// fix's FixType and a description of the outcome.
func (b *IRBackpropagator) RealignFromOutcome(app ir.ApplicationIR, iteration int, targetPath string, o Outcome) ir.ApplicationIR {
	if !o.Succeeded {
		return app
	}
	return b.Realign(app, iteration, targetPath, o.Fix.FixType, describeOutcome(o))
}

func describeOutcome(o Outcome) string {
	return fmt.Sprintf("%s: %s", o.Strategy, o.Fix.Description)
}
