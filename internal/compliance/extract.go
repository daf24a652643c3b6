package compliance

import (
	"regexp"
	"strconv"
	"strings"

	"cogc/internal/ir"
)

// classPattern matches a Python class declaration header, e.g.
// "class Widget(Base):" — the unit extraction walks field-by-field within.
var classPattern = regexp.MustCompile(`(?m)^class\s+(\w+)\s*\(`)

// columnPattern matches one SQLAlchemy-style column assignment, e.g.
// `price = Column(Numeric, nullable=False)`.
var columnPattern = regexp.MustCompile(`(?m)^\s*(\w+)\s*=\s*Column\(([^)]*)\)`)

// fieldPattern matches one Pydantic-style field assignment, e.g.
// `price: float = Field(gt=0)`.
var fieldPattern = regexp.MustCompile(`(?m)^\s*(\w+)\s*:\s*[\w\[\], ]+\s*=\s*Field\(([^)]*)\)`)

// ExtractORMConstraints walks a generated SQLAlchemy-style model file's
// text and returns one Constraint per recognized column option
// (nullable, unique). This is a structural line-oriented walk rather
// than a full Python AST parse — the generated ORM files always follow
// the one-column-per-line shape StratifiedEmitter's templates produce,
// so a line-oriented walk is sufficient and avoids pulling in a full
// Python grammar for a narrow, emitter-controlled input shape.
func ExtractORMConstraints(source string) []Constraint {
	var out []Constraint
	for _, class := range classPattern.FindAllStringSubmatchIndex(source, -1) {
		entity := source[class[2]:class[3]]
		body := bodyAfter(source, class[1])
		for _, m := range columnPattern.FindAllStringSubmatch(body, -1) {
			field, opts := m[1], m[2]
			out = append(out, ormConstraintsFromOptions(entity, field, opts)...)
		}
	}
	return out
}

func ormConstraintsFromOptions(entity, field, opts string) []Constraint {
	var out []Constraint
	if strings.Contains(opts, "nullable=False") {
		out = append(out, Constraint{Entity: entity, Field: field, Type: ir.ConstraintPresence, Value: "required", Source: ir.ProvenanceSQLAlchemy, Confidence: 0.8})
	}
	if strings.Contains(opts, "unique=True") {
		out = append(out, Constraint{Entity: entity, Field: field, Type: ir.ConstraintUniqueness, Value: "true", Source: ir.ProvenanceSQLAlchemy, Confidence: 0.8})
	}
	return out
}

// ExtractPydanticConstraints walks a generated Pydantic-style schema
// file's text and returns one Constraint per recognized Field()
// keyword constraint (gt/ge/lt/le, min_length/max_length, pattern).
func ExtractPydanticConstraints(source string) []Constraint {
	var out []Constraint
	for _, class := range classPattern.FindAllStringSubmatchIndex(source, -1) {
		entity := source[class[2]:class[3]]
		body := bodyAfter(source, class[1])
		for _, m := range fieldPattern.FindAllStringSubmatch(body, -1) {
			field, opts := m[1], m[2]
			out = append(out, pydanticConstraintsFromOptions(entity, field, opts)...)
		}
	}
	return out
}

var kwPattern = regexp.MustCompile(`(\w+)\s*=\s*([\d.]+)`)

func pydanticConstraintsFromOptions(entity, field, opts string) []Constraint {
	var out []Constraint
	for _, kv := range kwPattern.FindAllStringSubmatch(opts, -1) {
		key, val := kv[1], kv[2]
		var kind ir.ConstraintType
		switch key {
		case "gt", "ge":
			kind = ir.ConstraintRangeMin
		case "lt", "le":
			kind = ir.ConstraintRangeMax
		case "min_length":
			kind = ir.ConstraintLengthMin
		case "max_length":
			kind = ir.ConstraintLengthMax
		default:
			continue
		}
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			continue
		}
		value := val
		if key == "gt" || key == "lt" {
			value = key + ":" + val // exclusive bound, read back by splitOpValue
		}
		out = append(out, Constraint{Entity: entity, Field: field, Type: kind, Value: value, Source: ir.ProvenancePydantic, Confidence: 0.85})
	}
	return out
}

// bodyAfter returns source from offset up to (but not including) the
// next top-level "class " declaration, or to the end of the file.
func bodyAfter(source string, offset int) string {
	rest := source[offset:]
	if idx := classPattern.FindStringIndex(rest); idx != nil {
		return rest[:idx[0]]
	}
	return rest
}
