// Package emitter implements the stratified emitter:
// deterministic path-to-stratum classification, slot-disciplined LLM
// insertion, the fixed set of AST generator contracts, and the
// generation manifest every emitted file is recorded into. Grounded on
// the teacher's `internal/autopoiesis/tool_generation.go`/
// `tool_templates.go`/`atom_generator.go` template-plus-AST-codegen
// split (read before that package was scoped out of this build,
// reconstructed from transcript notes — the "atom" vocabulary survives
// as the unit StratifiedEmitter's own atoms use) and
// `internal/articulation`'s prompt-assembly shape for the LLM stratum.
package emitter

import "strings"

// Stratum is the generation class of one emitted file.
type Stratum string

const (
	StratumTemplate Stratum = "template"
	StratumAST      Stratum = "ast"
	StratumLLM      Stratum = "llm"
)

// templateProtectedPaths are forbidden to the LLM stratum outright; a
// write attempt here is a Fatal-kind error. This set must
// never include a path the classification table assigns to the AST
// stratum (e.g. migrations/, src/models/schemas.) — those are
// protected from the LLM stratum by their own stratum assignment, not
// by this list, and EmitASTFile must be able to write them.
var templateProtectedPaths = []string{
	"docker-compose.yml",
	"Dockerfile",
	"src/core/config.",
	"src/routes/health.",
}

// IsTemplateProtected reports whether path is in the template-protected set.
func IsTemplateProtected(path string) bool {
	for _, p := range templateProtectedPaths {
		if strings.HasPrefix(path, p) || strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// classificationRule is one entry of the path-prefix/suffix table that
// drives Classify. Rules are checked in order; the first match wins,
// so more specific rules must precede general ones.
type classificationRule struct {
	matches func(path string) bool
	stratum Stratum
}

var classificationTable = []classificationRule{
	{suffixRule("Dockerfile"), StratumTemplate},
	{suffixRule("docker-compose.yml"), StratumTemplate},
	{prefixRule("src/core/config."), StratumTemplate},
	{prefixRule("src/routes/health."), StratumTemplate},
	{prefixRule("pyproject."), StratumTemplate},
	{prefixRule("README."), StratumLLM},
	{prefixRule("src/models/entities."), StratumAST},
	{prefixRule("src/models/schemas."), StratumAST},
	{prefixRule("src/repositories/"), StratumAST},
	{prefixRule("src/routes/"), StratumAST},
	{prefixRule("migrations/"), StratumAST},
	{prefixRule("src/services/"), StratumLLM},
}

func prefixRule(prefix string) func(string) bool {
	return func(path string) bool { return strings.HasPrefix(path, prefix) }
}

func suffixRule(suffix string) func(string) bool {
	return func(path string) bool { return strings.HasSuffix(path, suffix) }
}

// Classify returns the stratum path belongs to under the deterministic,
// total, side-effect-free classification table. Paths matching no rule
// default to StratumTemplate (static infrastructure is the safe default).
func Classify(path string) Stratum {
	for _, rule := range classificationTable {
		if rule.matches(path) {
			return rule.stratum
		}
	}
	return StratumTemplate
}
