package repair

import (
	"fmt"
	"time"
)

// MutationEntry is one unified-diff mutation tagged with the
// violation that triggered it and its eventual outcome.
// History is append-only; nothing ever rewrites an entry.
type MutationEntry struct {
	Iteration        int
	FilePath         string
	Strategy         string
	TriggeringViolation string
	Diff             string
	AppliedAt        time.Time
	Succeeded        bool
}

// MutationHistory accumulates MutationEntry records across a repair
// run. It is the source IRBackpropagator folds back into
// ApplicationIR.RepairHistory, and what DeltaValidator consults to
// compute AffectedScope.
type MutationHistory struct {
	entries []MutationEntry
}

// NewMutationHistory returns an empty history.
func NewMutationHistory() *MutationHistory {
	return &MutationHistory{}
}

// Record appends one mutation. iteration is the repair-loop iteration
// number (1-indexed) it occurred in.
func (h *MutationHistory) Record(iteration int, violationKey string, fix Fix, strategyName string, appliedAt time.Time) {
	h.entries = append(h.entries, MutationEntry{
		Iteration:           iteration,
		FilePath:            fix.FilePath,
		Strategy:            strategyName,
		TriggeringViolation: violationKey,
		Diff:                fix.MutationDiff,
		AppliedAt:           appliedAt,
		Succeeded:           fix.Success,
	})
}

// Entries returns the full, ordered history.
func (h *MutationHistory) Entries() []MutationEntry {
	return h.entries
}

// AffectedFiles returns the distinct set of file paths mutated since
// iteration, inclusive — the basis of DeltaValidator's AffectedScope.
func (h *MutationHistory) AffectedFiles(sinceIteration int) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range h.entries {
		if e.Iteration < sinceIteration {
			continue
		}
		if !seen[e.FilePath] {
			seen[e.FilePath] = true
			out = append(out, e.FilePath)
		}
	}
	return out
}

// ViolationBudget tracks attempts per (endpoint, error_type,
// exception_class) key, enforcing the per_violation_budget limit.
type ViolationBudget struct {
	limit int
	used  map[string]int
}

// NewViolationBudget builds a tracker bounding each violation key to
// limit attempts (spec default: config.RepairConfig.PerViolationBudget).
func NewViolationBudget(limit int) *ViolationBudget {
	return &ViolationBudget{limit: limit, used: map[string]int{}}
}

// Key derives the canonical budget key for a violation.
func Key(endpoint, errorType, exceptionClass string) string {
	return fmt.Sprintf("%s|%s|%s", endpoint, errorType, exceptionClass)
}

// Allow reports whether another attempt at key is still within budget,
// and if so reserves it by incrementing the counter.
func (b *ViolationBudget) Allow(key string) bool {
	if b.used[key] >= b.limit {
		return false
	}
	b.used[key]++
	return true
}

// Exhausted reports whether key has used its full budget.
func (b *ViolationBudget) Exhausted(key string) bool {
	return b.used[key] >= b.limit
}
