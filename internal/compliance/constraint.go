// Package compliance implements the compliance validator: it compares
// generated code's observable structure back against
// ApplicationIR across three progressively stricter views, and the
// QualityGate that combines compliance with smoke results per
// environment. Grounded on `internal/world/python_parser.go`'s
// structural field/constraint extraction approach (walking a parsed
// file's declarations into typed elements) — narrowed here from
// indexing an arbitrary multi-language repo for chat-agent code
// search down to the one concern ComplianceValidator needs: reading
// field constraints back out of the generated ORM/schema Python
// files. `internal/world`'s own tree-sitter multi-language parsers
// remain available as a library but are not imported here since the
// generated target is always Python (see DESIGN.md).
package compliance

import (
	"cogc/internal/ir"
)

// Constraint is one code-side field constraint extracted by AST
// walking a generated ORM/schema file, keyed for O(1) matching by
// Key(). It reuses ir.ConstraintType so code-side and IR-side
// constraints compare directly without a translation layer.
type Constraint struct {
	Entity     string
	Field      string
	Type       ir.ConstraintType
	Value      string
	Source     ir.Provenance // which generated file this was read from
	Confidence float64
}

// Key is the {entity}.{field}.{constraint_type} lookup key, matching
// ir.ConstraintKey's format exactly so a Constraint and a
// ConstraintRule from the same logical rule always collide.
func (c Constraint) Key() string {
	return ir.ConstraintKey(c.Entity, c.Field, c.Type)
}

// CollapseDuplicates picks the highest-confidence rule per Key when
// the same constraint is declared by more than one source
// (OpenAPI/Pydantic/ORM).
func CollapseDuplicates(constraints []Constraint) map[string]Constraint {
	best := map[string]Constraint{}
	for _, c := range constraints {
		existing, ok := best[c.Key()]
		if !ok || c.Confidence > existing.Confidence {
			best[c.Key()] = c
		}
	}
	return best
}
