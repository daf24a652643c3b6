package repair

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cogc/internal/attribute"
	"cogc/internal/classify"
	"cogc/internal/llmclient"
)

// DatabaseStrategy repairs integrity/uniqueness/FK/not-null violations
// by relaxing or tightening the generated ORM column definition that
// the failing write path touched.
type DatabaseStrategy struct{ hits, misses int }

func (s *DatabaseStrategy) Name() string { return "database" }

func (s *DatabaseStrategy) AppliesTo(v classify.Violation, _ attribute.Chain) bool {
	return classify.Classify(v) == classify.CategoryDatabase
}

func (s *DatabaseStrategy) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	path, before := pickModelFile(source, chain)
	after := before
	switch {
	case strings.Contains(v.ExceptionClass, "NotNull"):
		after = relaxNullable(before)
	case strings.Contains(v.ExceptionClass, "Unique"):
		after = addUniqueConstraint(before)
	case strings.Contains(v.ExceptionClass, "ForeignKey"):
		after = fixForeignKeyRef(before)
	}
	return Fix{
		FilePath:     path,
		FixType:      "schema_column",
		Description:  fmt.Sprintf("adjust column constraint for %s", v.ExceptionClass),
		NewContent:   after,
		MutationDiff: baseDiff(path, before, after),
	}, nil
}

func (s *DatabaseStrategy) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *DatabaseStrategy) RecordOutcome(fix Fix, succeeded bool) {
	if succeeded {
		s.hits++
	} else {
		s.misses++
	}
}

// ValidationStrategy repairs schema-validation mismatches by adding or
// loosening a Pydantic/marshmallow-style field constraint.
type ValidationStrategy struct{ hits, misses int }

func (s *ValidationStrategy) Name() string { return "validation" }

func (s *ValidationStrategy) AppliesTo(v classify.Violation, _ attribute.Chain) bool {
	return classify.Classify(v) == classify.CategoryValidation
}

func (s *ValidationStrategy) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	path, before := pickSchemaFile(source, chain)
	after := addFieldConstraint(before)
	return Fix{
		FilePath:     path,
		FixType:      "request_schema_constraint",
		Description:  "add missing request schema constraint",
		NewContent:   after,
		MutationDiff: baseDiff(path, before, after),
	}, nil
}

func (s *ValidationStrategy) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *ValidationStrategy) RecordOutcome(fix Fix, succeeded bool) {
	if succeeded {
		s.hits++
	} else {
		s.misses++
	}
}

// ServiceStrategy repairs 500s surfaced from business-logic/service
// methods: guard clauses, null checks, unhandled transition states.
type ServiceStrategy struct{ hits, misses int }

func (s *ServiceStrategy) Name() string { return "service" }

func (s *ServiceStrategy) AppliesTo(v classify.Violation, _ attribute.Chain) bool {
	return classify.Classify(v) == classify.CategoryService
}

func (s *ServiceStrategy) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	path, before := pickServiceFile(source, chain)
	after := addGuardClause(before)
	return Fix{
		FilePath:     path,
		FixType:      "service_guard_clause",
		Description:  "add missing precondition guard in service method",
		NewContent:   after,
		MutationDiff: baseDiff(path, before, after),
	}, nil
}

func (s *ServiceStrategy) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *ServiceStrategy) RecordOutcome(fix Fix, succeeded bool) {
	if succeeded {
		s.hits++
	} else {
		s.misses++
	}
}

// ImportStrategy repairs ImportError/ModuleNotFoundError by inserting
// the missing import line at the top of the offending file.
type ImportStrategy struct{ hits, misses int }

func (s *ImportStrategy) Name() string { return "import" }

func (s *ImportStrategy) AppliesTo(v classify.Violation, _ attribute.Chain) bool {
	return classify.Classify(v) == classify.CategoryImport
}

func (s *ImportStrategy) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	path, before := pickServiceFile(source, chain)
	after := before
	if !strings.Contains(before, "import ") {
		after = "import " + inferMissingModule(v) + "\n" + before
	}
	return Fix{
		FilePath:     path,
		FixType:      "missing_import",
		Description:  "insert missing import",
		NewContent:   after,
		MutationDiff: baseDiff(path, before, after),
	}, nil
}

func (s *ImportStrategy) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *ImportStrategy) RecordOutcome(fix Fix, succeeded bool) {
	if succeeded {
		s.hits++
	} else {
		s.misses++
	}
}

// RouteStrategy repairs 404s where APIModel already declares a
// matching endpoint: the generated router is missing the mount.
type RouteStrategy struct{ hits, misses int }

func (s *RouteStrategy) Name() string { return "route" }

func (s *RouteStrategy) AppliesTo(v classify.Violation, _ attribute.Chain) bool {
	return classify.Classify(v) == classify.CategoryRoute
}

func (s *RouteStrategy) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	path, before := pickRouterFile(source)
	after := addRouteMount(before, v.Endpoint)
	return Fix{
		FilePath:     path,
		FixType:      "route_mount",
		Description:  fmt.Sprintf("mount missing route for %s", v.Endpoint),
		NewContent:   after,
		MutationDiff: baseDiff(path, before, after),
	}, nil
}

func (s *RouteStrategy) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *RouteStrategy) RecordOutcome(fix Fix, succeeded bool) {
	if succeeded {
		s.hits++
	} else {
		s.misses++
	}
}

// LLMFallback is tried last for any violation none of the structural
// strategies claimed (CategoryGeneric included). A violation whose
// per-violation budget is exhausted is escalated by the orchestrator
// before strategy selection and never reaches it. It asks the LLM client for a
// full-file rewrite constrained to a FixResponse schema.
type LLMFallback struct {
	client llmclient.Client
	hits, misses int
}

// NewLLMFallback builds the fallback strategy over an llmclient.Client
// (either backend — Anthropic or Gemini — selected by the caller).
func NewLLMFallback(client llmclient.Client) *LLMFallback {
	return &LLMFallback{client: client}
}

func (s *LLMFallback) Name() string { return "llm_fallback" }

func (s *LLMFallback) AppliesTo(v classify.Violation, chain attribute.Chain) bool {
	return true
}

var fixResponseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "file_content": {"type": "string"},
    "description": {"type": "string"}
  },
  "required": ["file_content", "description"]
}`)

type fixResponse struct {
	FileContent string `json:"file_content"`
	Description string `json:"description"`
}

func (s *LLMFallback) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	path, before := pickServiceFile(source, chain)
	prompt := fmt.Sprintf(
		"The following file fails with %s at %s (HTTP %d). Causal chain: %v. Rewrite the file to fix the failure.\n\n%s",
		v.ExceptionClass, v.Endpoint, v.HTTPStatus, chain.Links, before,
	)
	resp, err := s.client.Complete(ctx, llmclient.Request{
		Slot:       "repair.llm_fallback",
		UserPrompt: prompt,
		Schema:     fixResponseSchema,
	})
	if err != nil {
		return Fix{}, fmt.Errorf("repair: llm fallback: %w", err)
	}
	var parsed fixResponse
	if err := json.Unmarshal(resp.JSON, &parsed); err != nil {
		return Fix{}, fmt.Errorf("repair: llm fallback returned malformed fix: %w", err)
	}
	return Fix{
		FilePath:     path,
		FixType:      "llm_rewrite",
		Description:  parsed.Description,
		NewContent:   parsed.FileContent,
		MutationDiff: baseDiff(path, before, parsed.FileContent),
	}, nil
}

func (s *LLMFallback) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *LLMFallback) RecordOutcome(fix Fix, succeeded bool) {
	if succeeded {
		s.hits++
	} else {
		s.misses++
	}
}
