package convergence

// AffectedScope is the set of entities, endpoints, and constraints
// touched by a round of mutations, computed from MutationHistory's
// affected-file list mapped back through the generation manifest.
type AffectedScope struct {
	Entities    []string
	Endpoints   []string
	Constraints []string
}

// DeltaValidator restricts a smoke iteration to AffectedScope as a
// pure optimization: it must never be the thing that
// declares convergence on its own. The Open Question ("may
// DeltaValidator declare Converged without a full smoke ever having
// run?") is resolved here per DESIGN.md: no — FullSmokeRan must be
// true at least once before any Converged verdict is accepted.
type DeltaValidator struct {
	fullSmokeRan bool
}

// NewDeltaValidator returns a validator that has not yet observed a
// full (unrestricted) smoke run.
func NewDeltaValidator() *DeltaValidator {
	return &DeltaValidator{}
}

// ObserveFullSmoke marks that an unrestricted smoke run completed.
func (d *DeltaValidator) ObserveFullSmoke() {
	d.fullSmokeRan = true
}

// CanRestrictToScope reports whether the next smoke iteration may be
// narrowed to AffectedScope rather than running the full scenario
// battery. Restriction is only ever a latency optimization over an
// iteration that is not the final convergence check.
func (d *DeltaValidator) CanRestrictToScope() bool {
	return d.fullSmokeRan
}

// CanDeclareConverged reports whether a Converged verdict produced
// from a scope-restricted smoke run may be trusted. It always
// requires at least one full smoke run in the pipeline's history —
// a restricted run alone can never promote the loop to Converged.
func (d *DeltaValidator) CanDeclareConverged(ranFullSmokeThisIteration bool) bool {
	return d.fullSmokeRan && ranFullSmokeThisIteration
}
