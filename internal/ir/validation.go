package ir

import "fmt"

// Provenance tags where a ConstraintRule's value was extracted from.
// ComplianceValidator picks the highest-confidence rule when the same
// key appears from more than one source.
type Provenance string

const (
	ProvenanceOpenAPI       Provenance = "openapi"
	ProvenancePydantic      Provenance = "pydantic"
	ProvenanceSQLAlchemy    Provenance = "sqlalchemy"
	ProvenanceBusinessLogic Provenance = "business_logic"
	ProvenanceSpec          Provenance = "spec"
)

// Validation is the ValidationModel sub-model: normalized
// ConstraintRules keyed by canonical "{entity}.{field}.{constraint_type}".
type Validation struct {
	Rules map[string]ConstraintRule `json:"rules" yaml:"rules"`
}

// ConstraintKey builds the canonical ValidationModel key for a rule.
func ConstraintKey(entity, field string, kind ConstraintType) string {
	return fmt.Sprintf("%s.%s.%s", entity, field, kind)
}

// ConstraintRule is one normalized validation rule, keyed canonically so
// two rules never collide under different values for the same key
// (spec invariant: "No two rules share a key with different values
// after normalization").
type ConstraintRule struct {
	Entity     string         `json:"entity" yaml:"entity"`
	Field      string         `json:"field" yaml:"field"`
	Type       ConstraintType `json:"type" yaml:"type"`
	Value      string         `json:"value" yaml:"value"`
	Confidence float64        `json:"confidence" yaml:"confidence"` // [0,1]
	Provenance Provenance     `json:"provenance" yaml:"provenance"`
}

// Merge resolves two rules claiming the same key by keeping the
// higher-confidence one; ties keep the existing rule. Conflicts are the
// caller's responsibility to log as an advisory (spec Boundary
// behaviors: "Constraint with conflicting rules: higher-confidence
// wins, conflict logged as advisory").
func (r ConstraintRule) Merge(other ConstraintRule) (winner ConstraintRule, conflicted bool) {
	if r.Value == other.Value {
		return r, false
	}
	if other.Confidence > r.Confidence {
		return other, true
	}
	return r, true
}
