// Package convergence implements the convergence monitor and delta
// validator: the three terminal-state predicates over a
// repair loop's pass-rate trajectory, repair-cycle detection, and the
// affected-scope smoke-restriction optimization. Grounded on
// `internal/northstar/guardian.go`'s invariant-trajectory tracking
// (read before its package was scoped out of this build; reconstructed
// from transcript notes here, not copied) — same "watch a series,
// raise on backslide" shape, retargeted from agent invariants to smoke
// pass rate.
package convergence

import "fmt"

// Iteration is one repair-loop round's recorded outcome.
type Iteration struct {
	Index     int
	PassRate  float64
	// FixSignature identifies the repair applied this round, e.g.
	// "database:customer_id.nullable" — used for repair-cycle detection.
	FixSignature string
}

// Status is one of the repair loop's four terminal states (converged,
// regressed, max iterations exhausted, repair cycle detected) plus the
// in-progress sentinel.
type Status string

const (
	InProgress           Status = "in_progress"
	Converged            Status = "converged"
	Regressed            Status = "regressed"
	MaxIterationsExhausted Status = "max_iterations_exhausted"
	RepairCycleDetected  Status = "repair_cycle_detected"
)

// Monitor tracks a repair run's pass-rate trajectory.
type Monitor struct {
	target   float64
	epsilon  float64
	history  []Iteration
}

// New builds a Monitor against the configured target pass rate and
// stall epsilon (config.RepairConfig.TargetPassRate/ConvergenceEpsilon).
func New(target, epsilon float64) *Monitor {
	return &Monitor{target: target, epsilon: epsilon}
}

// Record appends one iteration's outcome to the trajectory.
func (m *Monitor) Record(it Iteration) {
	m.history = append(m.history, it)
}

// History returns the recorded trajectory so far.
func (m *Monitor) History() []Iteration {
	return m.history
}

// ReachedTarget reports pass_rate >= target for the latest iteration.
func (m *Monitor) ReachedTarget() bool {
	if len(m.history) == 0 {
		return false
	}
	return m.history[len(m.history)-1].PassRate >= m.target
}

// Regressed reports pass_rate_n < pass_rate_{n-1}.
func (m *Monitor) Regressed() bool {
	if len(m.history) < 2 {
		return false
	}
	n := len(m.history)
	return m.history[n-1].PassRate < m.history[n-2].PassRate
}

// Stalled reports |pass_rate_n - pass_rate_{n-1}| < epsilon AND
// pass_rate_n < target — a fixed point below target.
func (m *Monitor) Stalled() bool {
	if len(m.history) < 2 {
		return false
	}
	n := len(m.history)
	last, prev := m.history[n-1].PassRate, m.history[n-2].PassRate
	delta := last - prev
	if delta < 0 {
		delta = -delta
	}
	return delta < m.epsilon && last < m.target
}

// RepairCycleDetected reports whether the same FixSignature was
// applied in two different iterations — an oscillating repair the
// orchestrator must abort rather than retry indefinitely.
func (m *Monitor) RepairCycleDetected() (string, bool) {
	seen := map[string]int{}
	for _, it := range m.history {
		if it.FixSignature == "" {
			continue
		}
		seen[it.FixSignature]++
		if seen[it.FixSignature] >= 2 {
			return it.FixSignature, true
		}
	}
	return "", false
}

// Evaluate runs the three trajectory predicates in the priority order the
// orchestrator's top-level loop checks them in: target check happens
// before regressed/stalled; cycle detection is checked by the caller
// before invoking Evaluate for the current iteration, since a detected
// cycle should abort before even recording the pass rate that
// produced it.
func (m *Monitor) Evaluate() Status {
	if m.ReachedTarget() {
		return Converged
	}
	if m.Regressed() {
		return Regressed
	}
	if m.Stalled() {
		return Converged
	}
	return InProgress
}

// String renders a status for manifest/report output.
func (s Status) String() string { return string(s) }

// Summary renders a one-line human summary of the current trajectory,
// used in quality-gate reports.
func (m *Monitor) Summary() string {
	if len(m.history) == 0 {
		return "no iterations recorded"
	}
	last := m.history[len(m.history)-1]
	return fmt.Sprintf("iteration %d: pass_rate=%.2f target=%.2f status=%s", last.Index, last.PassRate, m.target, m.Evaluate())
}
