package smoke_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"cogc/internal/ir"
	"cogc/internal/smoke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratorIsDeterministic(t *testing.T) {
	g1 := smoke.NewUUIDGenerator()
	g2 := smoke.NewUUIDGenerator()
	assert.Equal(t, g1.Next("Widget"), g2.Next("Widget"))
	assert.NotEqual(t, g1.At("Widget", 0), g1.At("Widget", 1))
}

func TestEntityTopoOrderPutsReferencedEntityFirst(t *testing.T) {
	dom := ir.Domain{Entities: []ir.Entity{
		{Name: "LineItem", Fields: []ir.Field{{Name: "order_id", IsForeignKey: true, References: "Order"}}},
		{Name: "Order"},
	}}
	order := smoke.EntityTopoOrder(dom)
	require.Len(t, order, 2)
	assert.Equal(t, "Order", order[0])
	assert.Equal(t, "LineItem", order[1])
}

func TestSynthesizeValidHonorsRangeMinConstraint(t *testing.T) {
	e := ir.Entity{Name: "Widget", Fields: []ir.Field{
		{Name: "qty", Type: ir.TypeInt, Constraints: []ir.FieldConstraint{{Type: ir.ConstraintRangeMin, Value: "5"}}},
	}}
	payload := smoke.SynthesizeValid(e, smoke.NewUUIDGenerator())
	assert.Equal(t, 6, payload["qty"])
}

func TestSynthesizeInvalidBreaksExactlyOneConstraint(t *testing.T) {
	e := ir.Entity{Name: "Widget", Fields: []ir.Field{
		{Name: "name", Type: ir.TypeString, Constraints: []ir.FieldConstraint{{Type: ir.ConstraintLengthMin, Value: "1"}}},
	}}
	payload, field := smoke.SynthesizeInvalid(e, smoke.NewUUIDGenerator())
	assert.Equal(t, "name", field)
	assert.Equal(t, "", payload["name"])
}

func TestGenerateScenariosCoversHappyAndValidationPerEndpoint(t *testing.T) {
	app := ir.ApplicationIR{
		Domain: ir.Domain{Entities: []ir.Entity{{Name: "Widget", Fields: []ir.Field{
			{Name: "name", Type: ir.TypeString, Constraints: []ir.FieldConstraint{{Type: ir.ConstraintPresence}}},
		}}}},
		API: ir.API{Endpoints: []ir.Endpoint{
			{Method: ir.MethodPost, Path: "/widgets", OperationID: "create_widget", Entity: "Widget", RequestSchema: "WidgetCreate"},
		}},
	}
	scenarios := smoke.GenerateScenarios(app, smoke.NewUUIDGenerator())
	var sawHappy, sawInvalid bool
	for _, s := range scenarios {
		if s.Name == "create_widget_happy_path" {
			sawHappy = true
			assert.Equal(t, 201, s.ExpectedStatus)
		}
		if s.Name == "create_widget_validation_error" {
			sawInvalid = true
			assert.Equal(t, 422, s.ExpectedStatus)
			assert.Equal(t, "create_widget_happy_path", s.DependsOn)
		}
	}
	assert.True(t, sawHappy)
	assert.True(t, sawInvalid)
}

func TestGenerateFixturesOrdersParentBeforeChildAndSharesIDs(t *testing.T) {
	dom := ir.Domain{Entities: []ir.Entity{
		{Name: "LineItem", Fields: []ir.Field{
			{Name: "id", Type: ir.TypeUUID},
			{Name: "order_id", IsForeignKey: true, References: "Order"},
		}},
		{Name: "Order", Fields: []ir.Field{{Name: "id", Type: ir.TypeUUID}}},
	}}
	gen := smoke.NewUUIDGenerator()
	rows := smoke.GenerateFixtures(dom, gen)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order", rows[0].Entity)
	assert.Equal(t, "LineItem", rows[1].Entity)

	orderID := gen.At("Order", 0).String()
	assert.Equal(t, orderID, rows[0].ID)

	var fk string
	for _, f := range rows[1].Fields {
		if f.Name == "order_id" {
			fk = f.Value.(string)
		}
	}
	assert.Equal(t, orderID, fk, "LineItem's order_id fixture must name the row the Order fixture creates")
}

func TestGenerateFixturesIDMatchesScenarioPathSubstitution(t *testing.T) {
	dom := ir.Domain{Entities: []ir.Entity{
		{Name: "Widget", Fields: []ir.Field{{Name: "id", Type: ir.TypeUUID}}},
	}}
	app := ir.ApplicationIR{
		Domain: dom,
		API: ir.API{Endpoints: []ir.Endpoint{
			{Method: ir.MethodGet, Path: "/widgets/{id}", PathParams: []string{"id"}, OperationID: "get_widget", Entity: "Widget"},
		}},
	}
	gen := smoke.NewUUIDGenerator()
	rows := smoke.GenerateFixtures(dom, gen)
	scenarios := smoke.GenerateScenarios(app, smoke.NewUUIDGenerator())
	require.Len(t, rows, 1)
	require.NotEmpty(t, scenarios)
	assert.Contains(t, scenarios[0].Path, rows[0].ID, "scenario path must reference the same id the fixture row was seeded with")
}

func TestGenerateScenariosIncludesOnePerFlow(t *testing.T) {
	app := ir.ApplicationIR{Behavior: ir.Behavior{Flows: []ir.Flow{{Name: "cancel_order"}}}}
	scenarios := smoke.GenerateScenarios(app, smoke.NewUUIDGenerator())
	var saw bool
	for _, s := range scenarios {
		if s.Name == "flow_cancel_order" {
			saw = true
		}
	}
	assert.True(t, saw)
}

type fakeCaller struct {
	status int
	body   string
}

func (f *fakeCaller) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: f.status, Body: io.NopCloser(bytes.NewReader([]byte(f.body)))}, nil
}

func TestRunnerRecordsViolationOnStatusMismatch(t *testing.T) {
	caller := &fakeCaller{status: 500, body: "Traceback (most recent call last):\nboom"}
	r := smoke.NewRunner("http://app", caller, 2)
	scenarios := []smoke.Scenario{{Name: "s1", Method: "GET", Path: "/widgets", ExpectedStatus: 200}}
	result := r.Run(context.Background(), scenarios)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, 500, result.Violations[0].ActualStatus)
	assert.Contains(t, result.Violations[0].StackTrace, "Traceback")
}

func TestRunnerPassRateOneHundredWhenAllPass(t *testing.T) {
	caller := &fakeCaller{status: 200, body: "{}"}
	r := smoke.NewRunner("http://app", caller, 2)
	scenarios := []smoke.Scenario{{Name: "s1", Method: "GET", Path: "/widgets", ExpectedStatus: 200}}
	result := r.Run(context.Background(), scenarios)
	assert.Equal(t, 1.0, result.PassRate)
}

func TestRunnerSkipsDependentScenarioWhenParentFails(t *testing.T) {
	caller := &fakeCaller{status: 500, body: ""}
	r := smoke.NewRunner("http://app", caller, 2)
	scenarios := []smoke.Scenario{
		{Name: "parent", Method: "POST", Path: "/widgets", ExpectedStatus: 201, Mutating: true},
		{Name: "child", Method: "GET", Path: "/widgets/1", ExpectedStatus: 200, DependsOn: "parent"},
	}
	result := r.Run(context.Background(), scenarios)
	var sawDependencyFailed bool
	for _, v := range result.Violations {
		if v.ScenarioName == "child" && v.ErrorType == "DEPENDENCY_FAILED" {
			sawDependencyFailed = true
		}
	}
	assert.True(t, sawDependencyFailed)
}
