package ir

import "fmt"

// Validate checks these cross-sub-model invariants: no duplicate
// entity/field names, every FK references an existing entity,
// operation ids are unique, every endpoint's entity and parent entity
// exist in Domain and a nested endpoint's ParentFKField names a field
// of the parent or the child, every Flow's source, target, created and
// step entities exist in Domain, port names are unique, and exactly one
// primary DB port is declared when any port is. It does not check
// endpoint schema references, nor the fields and statuses that a
// Flow's predicates and status transition name.
//
// Validate is the gate SpecLowering runs before accepting a lowered IR;
// a non-nil error here is LoweringFailed (fatal, no partial IR).
func (app ApplicationIR) Validate() error {
	if err := app.Domain.validate(); err != nil {
		return fmt.Errorf("domain model: %w", err)
	}
	if err := app.API.validate(app.Domain); err != nil {
		return fmt.Errorf("api model: %w", err)
	}
	if err := app.Behavior.validate(app.Domain); err != nil {
		return fmt.Errorf("behavior model: %w", err)
	}
	if err := app.Infrastructure.validate(); err != nil {
		return fmt.Errorf("infrastructure model: %w", err)
	}
	return nil
}

func (d Domain) validate() error {
	seen := map[string]bool{}
	for _, e := range d.Entities {
		if seen[e.Name] {
			return fmt.Errorf("duplicate entity %q", e.Name)
		}
		seen[e.Name] = true

		fieldSeen := map[string]bool{}
		for _, f := range e.Fields {
			if fieldSeen[f.Name] {
				return fmt.Errorf("entity %q: duplicate field %q", e.Name, f.Name)
			}
			fieldSeen[f.Name] = true
			if f.IsForeignKey {
				if _, ok := d.EntityByName(f.References); !ok {
					return fmt.Errorf("entity %q field %q: FK references unknown entity %q", e.Name, f.Name, f.References)
				}
			}
		}
	}
	return nil
}

func (a API) validate(d Domain) error {
	ids := map[string]bool{}
	for _, e := range a.Endpoints {
		if ids[e.OperationID] {
			return fmt.Errorf("duplicate operation id %q", e.OperationID)
		}
		ids[e.OperationID] = true

		if e.Entity != "" {
			if _, ok := d.EntityByName(e.Entity); !ok {
				return fmt.Errorf("endpoint %q: unknown entity %q", e.OperationID, e.Entity)
			}
		}
		if e.IsNested() {
			parent, ok := d.EntityByName(e.ParentEntity)
			if !ok {
				return fmt.Errorf("endpoint %q: unknown parent entity %q", e.OperationID, e.ParentEntity)
			}
			fk, ok := parent.FieldByName(e.ParentFKField)
			_ = fk
			if !ok {
				child, childOK := d.EntityByName(e.Entity)
				if !childOK {
					return fmt.Errorf("endpoint %q: nested child entity %q not found", e.OperationID, e.Entity)
				}
				if _, ok := child.FieldByName(e.ParentFKField); !ok {
					return fmt.Errorf("endpoint %q: no verified FK relationship %s.%s -> %s", e.OperationID, e.Entity, e.ParentFKField, e.ParentEntity)
				}
			}
		}
	}
	return nil
}

func (b Behavior) validate(d Domain) error {
	for _, f := range b.Flows {
		for _, entity := range []string{f.SourceEntity, f.TargetEntity, f.CreatesEntity} {
			if entity == "" {
				continue
			}
			if _, ok := d.EntityByName(entity); !ok {
				return fmt.Errorf("flow %q: unknown entity %q", f.Name, entity)
			}
		}
		for _, s := range f.Steps {
			if _, ok := d.EntityByName(s.Entity); !ok {
				return fmt.Errorf("flow %q step %q: unknown entity %q", f.Name, s.Kind, s.Entity)
			}
		}
	}
	return nil
}

func (infra Infrastructure) validate() error {
	seen := map[string]bool{}
	primaryCount := 0
	for _, p := range infra.Ports {
		if seen[p.Name] {
			return fmt.Errorf("duplicate port name %q", p.Name)
		}
		seen[p.Name] = true
		if p.IsPrimaryDB {
			primaryCount++
		}
	}
	if len(infra.Ports) > 0 && primaryCount != 1 {
		return fmt.Errorf("expected exactly one primary DB port, found %d", primaryCount)
	}
	return nil
}
