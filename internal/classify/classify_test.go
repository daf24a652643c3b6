package classify_test

import (
	"testing"

	"cogc/internal/classify"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStructuralExceptionClasses(t *testing.T) {
	cases := map[string]classify.Category{
		"IntegrityError":    classify.CategoryDatabase,
		"UniqueViolation":   classify.CategoryDatabase,
		"ValidationError":   classify.CategoryValidation,
		"ImportError":       classify.CategoryImport,
		"ModuleNotFoundError": classify.CategoryImport,
	}
	for class, want := range cases {
		got := classify.Classify(classify.Violation{ExceptionClass: class})
		assert.Equal(t, want, got, "class %s", class)
	}
}

func TestClassify500WithActionVerbIsService(t *testing.T) {
	got := classify.Classify(classify.Violation{HTTPStatus: 500, Endpoint: "/orders/42/cancel"})
	assert.Equal(t, classify.CategoryService, got)
}

func TestClassify500WithNestedResourceIsService(t *testing.T) {
	got := classify.Classify(classify.Violation{HTTPStatus: 500, Endpoint: "/widgets/{id}/items"})
	assert.Equal(t, classify.CategoryService, got)
}

func TestClassify404OnDeclaredRouteIsRoute(t *testing.T) {
	got := classify.Classify(classify.Violation{HTTPStatus: 404, Endpoint: "/widgets/1", RouteDeclared: true})
	assert.Equal(t, classify.CategoryRoute, got)
}

func TestClassify404OnUndeclaredRouteFallsThroughToGeneric(t *testing.T) {
	got := classify.Classify(classify.Violation{HTTPStatus: 404, Endpoint: "/unknown", RouteDeclared: false})
	assert.Equal(t, classify.CategoryGeneric, got)
}

func TestClassify422WithMatchingConstraintIsValidation(t *testing.T) {
	got := classify.Classify(classify.Violation{HTTPStatus: 422, SchemaMatchesConstraint: true})
	assert.Equal(t, classify.CategoryValidation, got)
}

func TestClassifyUnrecognizedFallsBackToGeneric(t *testing.T) {
	got := classify.Classify(classify.Violation{HTTPStatus: 200})
	assert.Equal(t, classify.CategoryGeneric, got)
}

func TestClassifyPrefersStructuralClassOverHTTPStatus(t *testing.T) {
	// A 404 with a recognized exception class still classifies DATABASE:
	// step 1 of the decision procedure runs before step 3.
	got := classify.Classify(classify.Violation{
		ExceptionClass: "IntegrityError", HTTPStatus: 404, RouteDeclared: true,
	})
	assert.Equal(t, classify.CategoryDatabase, got)
}
