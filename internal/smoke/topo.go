package smoke

import "cogc/internal/ir"

// EntityTopoOrder returns dom's entities ordered so that every entity
// referenced by another entity's foreign key appears before its
// dependent — the order the shared UUIDGenerator and the seed-DB
// emitter both key fixture construction by. Entities
// with no foreign keys sort first in declaration order; a cycle (which
// a well-formed Domain should never contain) breaks by falling back to
// declaration order for the remaining entities.
func EntityTopoOrder(dom ir.Domain) []string {
	deps := make(map[string][]string, len(dom.Entities))
	order := make([]string, 0, len(dom.Entities))
	for _, e := range dom.Entities {
		order = append(order, e.Name)
		for _, f := range e.Fields {
			if f.IsForeignKey && f.References != "" {
				deps[e.Name] = append(deps[e.Name], f.References)
			}
		}
	}

	visited := make(map[string]bool, len(order))
	visiting := make(map[string]bool, len(order))
	var result []string
	var visit func(name string)
	visit = func(name string) {
		if visited[name] || visiting[name] {
			return
		}
		visiting[name] = true
		for _, dep := range deps[name] {
			visit(dep)
		}
		visiting[name] = false
		visited[name] = true
		result = append(result, name)
	}
	for _, name := range order {
		visit(name)
	}
	return result
}
