package pipeline

import (
	"cogc/internal/compliance"
	"cogc/internal/convergence"
	"cogc/internal/emitter"
	"cogc/internal/ir"
	"cogc/internal/smoke"
)

// Status is the terminal state one pipeline Run ends in.
type Status string

const (
	StatusConverged              Status = "converged"
	StatusRegressed               Status = "regressed"
	StatusMaxIterationsExhausted Status = "max_iterations_exhausted"
	StatusRepairCycleDetected    Status = "repair_cycle_detected"
)

// EscalatedViolation is a violation whose per-violation repair budget
// was exhausted without resolving it: on the third
// occurrence the violation is escalated.
type EscalatedViolation struct {
	Key       string
	Violation smoke.Violation
}

// Result is everything one Run produced: the final IR (with its
// accumulated RepairHistory), the last smoke result, the generation
// manifest, the compliance report and quality-gate verdict, and the
// trajectory the convergence monitor recorded.
type Result struct {
	Status     Status
	Iterations int
	FinalIR    ir.ApplicationIR
	Manifest   emitter.Manifest
	Smoke      smoke.SmokeResult
	Trajectory []convergence.Iteration
	Escalated  []EscalatedViolation
	Compliance compliance.Report
	Gate       compliance.GateReport
	SourceTree SourceTree
}
