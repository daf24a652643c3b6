package repair_test

import (
	"path/filepath"
	"testing"
	"time"

	"cogc/internal/attribute"
	"cogc/internal/classify"
	"cogc/internal/ir"
	"cogc/internal/learning"
	"cogc/internal/repair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPicksFirstApplicableStrategyInPriorityOrder(t *testing.T) {
	strategies := repair.Registry(nil, repair.NewLLMFallback(nil))
	v := classify.Violation{ExceptionClass: "IntegrityError", HTTPStatus: 500}

	picked := repair.Select(strategies, v, attribute.Chain{})
	require.NotNil(t, picked)
	assert.Equal(t, "database", picked.Name())
}

func TestSelectFallsBackToLLMForGenericCategory(t *testing.T) {
	strategies := repair.Registry(nil, repair.NewLLMFallback(nil))
	v := classify.Violation{HTTPStatus: 503}

	picked := repair.Select(strategies, v, attribute.Chain{})
	require.NotNil(t, picked)
	assert.Equal(t, "llm_fallback", picked.Name())
}

func TestViolationBudgetEnforcesPerKeyLimit(t *testing.T) {
	b := repair.NewViolationBudget(2)
	key := repair.Key("/orders/{id}/cancel", "SERVICE", "")

	assert.True(t, b.Allow(key))
	assert.True(t, b.Allow(key))
	assert.False(t, b.Allow(key), "third attempt should exceed the budget")
	assert.True(t, b.Exhausted(key))
}

func TestMutationHistoryAffectedFilesSinceIteration(t *testing.T) {
	h := repair.NewMutationHistory()
	h.Record(1, "k1", repair.Fix{FilePath: "app/models/order.py", Success: true}, "database", time.Now())
	h.Record(2, "k2", repair.Fix{FilePath: "app/services/order_service.py", Success: true}, "service", time.Now())

	affected := h.AffectedFiles(2)
	assert.Equal(t, []string{"app/services/order_service.py"}, affected)
	assert.Len(t, h.Entries(), 2)
}

func TestIRBackpropagatorAppendsRepairRecordOnSuccessOnly(t *testing.T) {
	bp := repair.NewIRBackpropagator()
	app := ir.ApplicationIR{AppID: "widget-app"}

	failed := repair.Outcome{Strategy: "database", Fix: repair.Fix{Description: "noop"}, Succeeded: false}
	app = bp.RealignFromOutcome(app, 1, "domain.entity.Order.field.customer_id.nullable", failed)
	assert.Empty(t, app.RepairHistory)

	succeeded := repair.Outcome{Strategy: "database", Fix: repair.Fix{FixType: "schema_column", Description: "relaxed nullable"}, Succeeded: true}
	app = bp.RealignFromOutcome(app, 1, "domain.entity.Order.field.customer_id.nullable", succeeded)
	require.Len(t, app.RepairHistory, 1)
	assert.Equal(t, "schema_column", app.RepairHistory[0].FixType)
	assert.Equal(t, "domain.entity.Order.field.customer_id.nullable", app.RepairHistory[0].TargetPath)
}

func TestPatternReplayStrategyTakesPriorityWhenSignatureMatches(t *testing.T) {
	store, err := learning.Open(filepath.Join(t.TempDir(), "learning.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sigFn := func(v classify.Violation) string {
		return repair.Key(v.Endpoint, string(classify.Classify(v)), v.ExceptionClass)
	}
	v := classify.Violation{ExceptionClass: "IntegrityError", HTTPStatus: 500, Endpoint: "/widgets/{id}"}
	require.NoError(t, store.RecordFixOutcome(sigFn(v), "schema_column", "relaxed nullable content", true))

	replay := repair.NewPatternReplayStrategy(store, sigFn)
	strategies := repair.Registry(replay, repair.NewLLMFallback(nil))

	picked := repair.Select(strategies, v, attribute.Chain{})
	require.NotNil(t, picked)
	assert.Equal(t, "pattern_replay", picked.Name())
}
