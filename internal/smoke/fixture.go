package smoke

import "cogc/internal/ir"

// FixtureRow is one row the seed-DB emitter inserts before smoke
// scenarios run: the entity it belongs to, its deterministic primary
// key, and its column values with foreign keys already resolved to the
// referenced entity's own fixture row. Fields preserves Entity.Fields
// order so the emitted INSERT is byte-identical across runs.
type FixtureRow struct {
	Entity string
	ID     string
	Fields []FixtureField
}

// FixtureField is one column value of a FixtureRow.
type FixtureField struct {
	Name  string
	Value any
}

// GenerateFixtures derives the one fixture row per entity that backs
// every scenario GenerateScenarios produces: the same UUIDGenerator,
// keyed the same way (entity name, index 0) that substitutePathParams
// and the nested-delete path reference, so the row a scenario's path
// names is the row this function describes. Entities are walked in
// EntityTopoOrder so a referenced entity's row is always generated
// before its dependent's — inserting them in this order satisfies
// foreign-key constraints without a second pass.
func GenerateFixtures(dom ir.Domain, gen *UUIDGenerator) []FixtureRow {
	order := EntityTopoOrder(dom)
	rows := make([]FixtureRow, 0, len(order))
	for _, name := range order {
		e, ok := dom.EntityByName(name)
		if !ok {
			continue
		}
		id := gen.At(e.Name, 0).String()
		fields := make([]FixtureField, 0, len(e.Fields))
		for _, f := range e.Fields {
			switch {
			case f.Name == "id":
				// The primary key must be exactly the id scenario path
				// substitution references, not a freshly synthesized one.
				fields = append(fields, FixtureField{Name: f.Name, Value: id})
			case f.IsForeignKey:
				fields = append(fields, FixtureField{Name: f.Name, Value: gen.At(f.References, 0).String()})
			default:
				fields = append(fields, FixtureField{Name: f.Name, Value: synthesizeField(f, gen)})
			}
		}
		rows = append(rows, FixtureRow{
			Entity: e.Name,
			ID:     id,
			Fields: fields,
		})
	}
	return rows
}
