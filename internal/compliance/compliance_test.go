package compliance_test

import (
	"testing"

	"cogc/internal/compliance"
	"cogc/internal/config"
	"cogc/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ormFile = `class Widget(Base):
    id = Column(UUID, primary_key=True)
    name = Column(String, nullable=False)
    sku = Column(String, nullable=False, unique=True)
`

func TestExtractORMConstraintsReadsNullableAndUnique(t *testing.T) {
	cs := compliance.ExtractORMConstraints(ormFile)
	require.NotEmpty(t, cs)

	var sawPresence, sawUnique bool
	for _, c := range cs {
		if c.Entity == "Widget" && c.Field == "name" && c.Type == ir.ConstraintPresence {
			sawPresence = true
		}
		if c.Entity == "Widget" && c.Field == "sku" && c.Type == ir.ConstraintUniqueness {
			sawUnique = true
		}
	}
	assert.True(t, sawPresence)
	assert.True(t, sawUnique)
}

const schemaFile = `class WidgetCreate(BaseModel):
    name: str = Field(min_length=1, max_length=64)
    price: float = Field(gt=0)
`

func TestExtractPydanticConstraintsReadsFieldKeywords(t *testing.T) {
	cs := compliance.ExtractPydanticConstraints(schemaFile)
	require.NotEmpty(t, cs)

	var sawMin, sawRange bool
	for _, c := range cs {
		if c.Field == "name" && c.Type == ir.ConstraintLengthMin {
			sawMin = true
		}
		if c.Field == "price" && c.Type == ir.ConstraintRangeMin {
			sawRange = true
		}
	}
	assert.True(t, sawMin)
	assert.True(t, sawRange)
}

func TestStrictViewRequiresExactValueMatch(t *testing.T) {
	app := ir.ApplicationIR{Validation: ir.Validation{Rules: map[string]ir.ConstraintRule{
		"Widget.price.range_min": {Entity: "Widget", Field: "price", Type: ir.ConstraintRangeMin, Value: "0"},
	}}}
	code := []compliance.Constraint{
		{Entity: "Widget", Field: "price", Type: ir.ConstraintRangeMin, Value: "1", Confidence: 0.8},
	}
	v := compliance.New()
	result, _ := v.Check(app, code, compliance.ViewStrict)
	assert.Equal(t, 0.0, result.Overall, "strict view must reject a value mismatch")

	result, _ = v.Check(app, []compliance.Constraint{
		{Entity: "Widget", Field: "price", Type: ir.ConstraintRangeMin, Value: "0", Confidence: 0.8},
	}, compliance.ViewStrict)
	assert.Equal(t, 1.0, result.Overall)
}

func TestSemanticViewAcceptsGtZeroAsGeOne(t *testing.T) {
	app := ir.ApplicationIR{Validation: ir.Validation{Rules: map[string]ir.ConstraintRule{
		"Widget.qty.range_min": {Entity: "Widget", Field: "qty", Type: ir.ConstraintRangeMin, Value: "1"},
	}}}
	code := []compliance.Constraint{
		{Entity: "Widget", Field: "qty", Type: ir.ConstraintRangeMin, Value: "gt:0", Confidence: 0.8},
	}
	v := compliance.New()
	result, _ := v.Check(app, code, compliance.ViewSemantic)
	assert.Equal(t, 1.0, result.Overall)
}

func TestCollapseDuplicatesKeepsHighestConfidence(t *testing.T) {
	collapsed := compliance.CollapseDuplicates([]compliance.Constraint{
		{Entity: "Widget", Field: "name", Type: ir.ConstraintPresence, Value: "required", Confidence: 0.5},
		{Entity: "Widget", Field: "name", Type: ir.ConstraintPresence, Value: "required", Confidence: 0.9},
	})
	require.Contains(t, collapsed, "Widget.name.presence")
	assert.Equal(t, 0.9, collapsed["Widget.name.presence"].Confidence)
}

func TestGateFailsWhenBelowProdThresholds(t *testing.T) {
	report := compliance.Report{
		Semantic: compliance.ViewResult{Overall: 0.5},
		Relaxed:  compliance.ViewResult{Overall: 0.5},
		Strict:   compliance.ViewResult{Overall: 0.5},
	}
	g := compliance.Gate(config.EnvProd, report, 0.5, 0)
	assert.Equal(t, compliance.GateFailed, g.Status)
}

func TestGatePassesWhenMeetingDevThresholds(t *testing.T) {
	report := compliance.Report{
		Semantic: compliance.ViewResult{Overall: 0.8},
		Relaxed:  compliance.ViewResult{Overall: 0.6},
		Strict:   compliance.ViewResult{Overall: 0.4},
	}
	g := compliance.Gate(config.EnvDev, report, 0.85, 0)
	assert.Equal(t, compliance.GatePassed, g.Status)
}
