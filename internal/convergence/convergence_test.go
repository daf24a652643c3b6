package convergence_test

import (
	"testing"

	"cogc/internal/convergence"
	"github.com/stretchr/testify/assert"
)

func TestReachedTarget(t *testing.T) {
	m := convergence.New(0.8, 0.01)
	m.Record(convergence.Iteration{Index: 0, PassRate: 0.56})
	m.Record(convergence.Iteration{Index: 1, PassRate: 0.85})
	assert.Equal(t, convergence.Converged, m.Evaluate())
}

func TestRegressed(t *testing.T) {
	m := convergence.New(0.8, 0.01)
	m.Record(convergence.Iteration{Index: 0, PassRate: 0.7})
	m.Record(convergence.Iteration{Index: 1, PassRate: 0.6})
	assert.Equal(t, convergence.Regressed, m.Evaluate())
}

func TestStalledBelowTarget(t *testing.T) {
	m := convergence.New(0.8, 0.01)
	m.Record(convergence.Iteration{Index: 0, PassRate: 0.70})
	m.Record(convergence.Iteration{Index: 1, PassRate: 0.705})
	assert.Equal(t, convergence.Converged, m.Evaluate(), "stalled fixed point below target still terminates as Converged")
}

func TestInProgressWhenImproving(t *testing.T) {
	m := convergence.New(0.8, 0.01)
	m.Record(convergence.Iteration{Index: 0, PassRate: 0.5})
	m.Record(convergence.Iteration{Index: 1, PassRate: 0.65})
	assert.Equal(t, convergence.InProgress, m.Evaluate())
}

func TestRepairCycleDetectedOnRepeatedSignature(t *testing.T) {
	m := convergence.New(0.8, 0.01)
	m.Record(convergence.Iteration{Index: 0, PassRate: 0.5, FixSignature: "database:customer_id.nullable"})
	m.Record(convergence.Iteration{Index: 1, PassRate: 0.5, FixSignature: "database:customer_id.nullable"})
	sig, found := m.RepairCycleDetected()
	assert.True(t, found)
	assert.Equal(t, "database:customer_id.nullable", sig)
}

func TestDeltaValidatorRequiresFullSmokeBeforeConverging(t *testing.T) {
	d := convergence.NewDeltaValidator()
	assert.False(t, d.CanRestrictToScope())
	assert.False(t, d.CanDeclareConverged(true))

	d.ObserveFullSmoke()
	assert.True(t, d.CanRestrictToScope())
	assert.False(t, d.CanDeclareConverged(false), "a scope-restricted iteration's result must not declare convergence")
	assert.True(t, d.CanDeclareConverged(true))
}
