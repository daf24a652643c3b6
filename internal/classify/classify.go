// Package classify implements the error classifier: it
// maps one smoke-run violation to one of
// {DATABASE, VALIDATION, SERVICE, IMPORT, ROUTE, GENERIC} via an
// ordered decision procedure. Grounded on the teacher's table-driven
// regex classifier (`internal/mangle/feedback/error_classifier.go`,
// read before its package was scoped out of this build, and
// `internal/transparency/error_classifier.go`'s endpoint-shape
// dispatch) — same []classifierPattern shape, re-targeted from Mangle
// syntax errors to this compiler's violation categories.
package classify

import "regexp"

// Category is one of the six violation categories the classifier sorts into.
type Category string

const (
	CategoryDatabase   Category = "DATABASE"
	CategoryValidation Category = "VALIDATION"
	CategoryService    Category = "SERVICE"
	CategoryImport     Category = "IMPORT"
	CategoryRoute      Category = "ROUTE"
	CategoryGeneric    Category = "GENERIC"
)

// Violation is one smoke-run failure to classify.
type Violation struct {
	ExceptionClass string // e.g. "IntegrityError", "ValidationError", "" if none recognized
	HTTPStatus     int
	Endpoint       string // path as smoke invoked it, e.g. "/orders/{id}/cancel"
	RouteDeclared  bool   // APIModel declares an endpoint matching Endpoint
	SchemaMatchesConstraint bool // request schema has a constraint matching the 422 body
}

// classifierPattern is one entry of the structural-exception table,
// matched in declaration order — the first match wins.
type classifierPattern struct {
	exceptionClass *regexp.Regexp
	category       Category
}

var structuralPatterns = []classifierPattern{
	{regexp.MustCompile(`(?i)integrityerror|uniqueviolation|foreignkeyviolation|notnullviolation`), CategoryDatabase},
	{regexp.MustCompile(`(?i)validationerror|pydanticvalidationerror`), CategoryValidation},
	{regexp.MustCompile(`(?i)importerror|modulenotfounderror`), CategoryImport},
}

// serviceVerbPattern recognizes action-verb or nested-resource endpoint
// shapes that indicate a service-layer (business logic) failure rather
// than a generic 500.
var serviceVerbPattern = regexp.MustCompile(`/(pay|cancel|checkout|ship|refund|approve|reject)(/|$)|/\{[^}]+\}/[a-z_]+$`)

// Classify runs the five-step structural-then-heuristic decision procedure.
func Classify(v Violation) Category {
	if v.ExceptionClass != "" {
		for _, p := range structuralPatterns {
			if p.exceptionClass.MatchString(v.ExceptionClass) {
				return p.category
			}
		}
	}

	if v.HTTPStatus == 500 {
		if serviceVerbPattern.MatchString(v.Endpoint) {
			return CategoryService
		}
	}

	if v.HTTPStatus == 404 && v.RouteDeclared {
		return CategoryRoute
	}

	if v.HTTPStatus == 422 && v.SchemaMatchesConstraint {
		return CategoryValidation
	}

	return CategoryGeneric
}
