package lowering

import "cogc/internal/ir"

// Enrich implements the IREnricher: for every entity with a POST
// endpoint, add a list GET and a DELETE; add health and metrics
// endpoints; detect nested resources by FK topology (not by name) and
// materialize their endpoints. Every added endpoint is flagged
// InferenceCRUDBestPractice/InferenceInfraBestPractice. strict_mode
// disables all of this and returns app unchanged.
func Enrich(app ir.ApplicationIR, cfg EnrichmentConfig) ir.ApplicationIR {
	if cfg.StrictMode {
		return app
	}

	app = enrichCRUDEndpoints(app)
	app = enrichInfraEndpoints(app)
	app = enrichNestedResources(app)
	return app
}

func enrichCRUDEndpoints(app ir.ApplicationIR) ir.ApplicationIR {
	hasOp := func(entity string, method ir.HTTPMethod, nested bool) bool {
		for _, ep := range app.API.Endpoints {
			if ep.Entity == entity && ep.Method == method && ep.IsNested() == nested {
				return true
			}
		}
		return false
	}

	for _, e := range app.Domain.Entities {
		if !hasOp(e.Name, ir.MethodPost, false) {
			continue
		}
		if !hasOp(e.Name, ir.MethodGet, false) {
			app.API.Endpoints = append(app.API.Endpoints, ir.Endpoint{
				Method:      ir.MethodGet,
				Path:        "/" + collectionPath(e.Name),
				OperationID: "list_" + snakeEntity(e.Name),
				Entity:      e.Name,
				Inferred:    true,
				InferenceSource: ir.InferenceCRUDBestPractice,
			})
		}
		if !hasOp(e.Name, ir.MethodDelete, false) {
			app.API.Endpoints = append(app.API.Endpoints, ir.Endpoint{
				Method:      ir.MethodDelete,
				Path:        "/" + collectionPath(e.Name) + "/{id}",
				OperationID: "delete_" + snakeEntity(e.Name),
				Entity:      e.Name,
				Inferred:    true,
				InferenceSource: ir.InferenceCRUDBestPractice,
			})
		}
	}
	return app
}

func enrichInfraEndpoints(app ir.ApplicationIR) ir.ApplicationIR {
	has := func(path string) bool {
		for _, ep := range app.API.Endpoints {
			if ep.Path == path {
				return true
			}
		}
		return false
	}
	if !has("/health") {
		app.API.Endpoints = append(app.API.Endpoints, ir.Endpoint{
			Method: ir.MethodGet, Path: "/health", OperationID: "health_check",
			Inferred: true, InferenceSource: ir.InferenceInfraBestPractice,
		})
	}
	if !has("/metrics") {
		app.API.Endpoints = append(app.API.Endpoints, ir.Endpoint{
			Method: ir.MethodGet, Path: "/metrics", OperationID: "metrics",
			Inferred: true, InferenceSource: ir.InferenceInfraBestPractice,
		})
	}
	return app
}

// enrichNestedResources detects a nested-resource relationship by FK
// topology (a FK field on the child entity referencing the parent),
// not by endpoint naming, and materializes the child's collection
// endpoints under the parent's path if not already declared.
func enrichNestedResources(app ir.ApplicationIR) ir.ApplicationIR {
	for _, child := range app.Domain.Entities {
		for _, f := range child.Fields {
			if !f.IsForeignKey || f.References == "" {
				continue
			}
			parent := f.References
			if !hasNestedEndpoint(app, parent, child.Name) {
				app.API.Endpoints = append(app.API.Endpoints, ir.Endpoint{
					Method:        ir.MethodGet,
					Path:          "/" + collectionPath(parent) + "/{id}/" + collectionPath(child.Name),
					OperationID:   "list_" + snakeEntity(parent) + "_" + snakeEntity(child.Name),
					Entity:        child.Name,
					ParentEntity:  parent,
					ParentFKField: f.Name,
					Inferred:      true,
					InferenceSource: ir.InferenceCRUDBestPractice,
				})
			}
		}
	}
	return app
}

func hasNestedEndpoint(app ir.ApplicationIR, parent, child string) bool {
	for _, ep := range app.API.Endpoints {
		if ep.ParentEntity == parent && ep.Entity == child {
			return true
		}
	}
	return false
}

func collectionPath(entityName string) string {
	return pluralize(snakeEntity(entityName))
}

func snakeEntity(name string) string {
	return ir.ToSnakeCase(name)
}

func pluralize(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[len(s)-1] {
	case 's', 'x', 'z':
		return s + "es"
	case 'y':
		if len(s) > 1 {
			c := s[len(s)-2]
			if c != 'a' && c != 'e' && c != 'i' && c != 'o' && c != 'u' {
				return s[:len(s)-1] + "ies"
			}
		}
		return s + "s"
	default:
		return s + "s"
	}
}
