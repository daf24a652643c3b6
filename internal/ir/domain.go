package ir

// Domain is the DomainModel sub-model: the set of Entities and their
// Fields. Field and entity names are canonical ASCII — snake_case for
// fields, PascalCase for entities — enforced by Normalize, never by the
// caller.
type Domain struct {
	Entities []Entity `json:"entities" yaml:"entities"`
}

// EntityByName returns the entity with the given PascalCase name, or
// false if no such entity exists.
func (d Domain) EntityByName(name string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// Entity owns an ordered list of Fields. Field order is significant: it
// is the order AST generators emit columns/schema properties in, so
// byte-identical output across runs depends on it never being
// re-sorted.
type Entity struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// FieldByName returns the field with the given snake_case name.
func (e Entity) FieldByName(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SemanticType is the normalized type vocabulary AST generators switch
// on. It is deliberately small and closed: every new column/schema
// mapping in the emitter is a table lookup keyed by this type, never a
// branch on entity or field name.
type SemanticType string

const (
	TypeUUID     SemanticType = "uuid"
	TypeString   SemanticType = "string"
	TypeInt      SemanticType = "int"
	TypeDecimal  SemanticType = "decimal"
	TypeBool     SemanticType = "bool"
	TypeDatetime SemanticType = "datetime"
	TypeEnum     SemanticType = "enum"
)

// Field describes one column/schema property of an Entity.
type Field struct {
	Name        string           `json:"name" yaml:"name"`
	Type        SemanticType     `json:"type" yaml:"type"`
	Nullable    bool             `json:"nullable" yaml:"nullable"`
	Default     *FieldDefault    `json:"default,omitempty" yaml:"default,omitempty"`
	IsForeignKey bool            `json:"is_foreign_key" yaml:"is_foreign_key"`
	References   string          `json:"references,omitempty" yaml:"references,omitempty"` // entity name, if IsForeignKey
	EnumValues   []string        `json:"enum_values,omitempty" yaml:"enum_values,omitempty"`
	Constraints  []FieldConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// FieldDefault distinguishes a SQL-level default (emitted with the
// target ORM's text-literal wrapper, e.g. server_default=text("now()"))
// from a plain application-level literal default.
type FieldDefault struct {
	IsSQLExpression bool   `json:"is_sql_expression" yaml:"is_sql_expression"`
	Value           string `json:"value" yaml:"value"`
}

// ConstraintType enumerates the normalized FieldConstraint kinds. These
// are the only vocabulary ValidationModel, AST generators, and
// ComplianceValidator are allowed to share — never a raw string lifted
// from spec text.
type ConstraintType string

const (
	ConstraintRangeMin    ConstraintType = "range_min"
	ConstraintRangeMax    ConstraintType = "range_max"
	ConstraintPattern     ConstraintType = "pattern"
	ConstraintLengthMin   ConstraintType = "length_min"
	ConstraintLengthMax   ConstraintType = "length_max"
	ConstraintPresence    ConstraintType = "presence"
	ConstraintUniqueness  ConstraintType = "uniqueness"
	ConstraintFormatEmail ConstraintType = "format_email"
	ConstraintFormatURL   ConstraintType = "format_url"
	ConstraintEnum        ConstraintType = "enum"
)

// FieldConstraint is a normalized constraint attached directly to a
// Field. ValidationModel's ConstraintRules are the same data keyed for
// O(1) lookup by canonical key; FieldConstraint is the copy AST
// generators read while walking Domain.
type FieldConstraint struct {
	Type  ConstraintType `json:"type" yaml:"type"`
	Value string         `json:"value" yaml:"value"` // numeric/pattern/enum-csv encoded as string
}
