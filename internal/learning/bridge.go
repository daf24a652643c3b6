package learning

import (
	"strings"
)

// Bridge converts every new ErrorKnowledge row into a
// GenerationAntiPattern, deduplicating by signature.
type Bridge struct {
	store *Store
}

// NewBridge wires a Bridge to store.
func NewBridge(store *Store) *Bridge {
	return &Bridge{store: store}
}

// Absorb records e and derives/upserts its corresponding anti-pattern.
func (b *Bridge) Absorb(e ErrorKnowledge, wrongSnippet, correctSnippet string) error {
	if err := b.store.RecordError(e); err != nil {
		return err
	}
	entity := ExtractEntity(e.EndpointNormalized)
	endpoint := NormalizeEndpoint(e.EndpointNormalized)
	return b.store.UpsertAntiPattern(GenerationAntiPattern{
		EntityPattern:   entity,
		EndpointPattern: endpoint,
		WrongSnippet:    wrongSnippet,
		CorrectSnippet:  correctSnippet,
		Severity:        1,
	})
}

// reservedSegments are path segments that are never the entity itself
// (API versioning/namespace conventions, not domain nouns).
var reservedSegments = map[string]bool{"api": true}

// ExtractEntity derives the entity name from a path structurally: the
// first non-parameter segment that is not "api" or a version segment
// ("v1", "v2", ...), with its trailing "s" stripped and PascalCased.
// No hard-coded entity names.
func ExtractEntity(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		if reservedSegments[strings.ToLower(seg)] {
			continue
		}
		if isVersionSegment(seg) {
			continue
		}
		return pascalCase(strings.TrimSuffix(seg, "s"))
	}
	return ""
}

func isVersionSegment(seg string) bool {
	if len(seg) < 2 || (seg[0] != 'v' && seg[0] != 'V') {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

// NormalizeEndpoint replaces numeric IDs and UUIDs (8-4-4-4-12 hex)
// with "{id}" so /widgets/42 and /widgets/{id} share a signature.
func NormalizeEndpoint(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if s == "" || strings.HasPrefix(s, "{") {
			continue
		}
		if isNumeric(s) || isUUID(s) {
			segs[i] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isUUID(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		return false
	}
	lens := []int{8, 4, 4, 4, 12}
	for i, p := range parts {
		if len(p) != lens[i] {
			return false
		}
	}
	return true
}

// ExtractExceptionClass is delimiter-based, not regex-based: it splits
// a raw log/stack-trace line on ":", newlines, and " - ", walks the
// resulting tokens' dotted paths from the tail, and accepts the first
// token ending in Error/Exception/Warning that starts upper-case.
func ExtractExceptionClass(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ':' || r == '\n'
	})
	var tokens []string
	for _, f := range fields {
		tokens = append(tokens, strings.Split(f, " - ")...)
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := strings.TrimSpace(tokens[i])
		dotted := strings.Split(tok, ".")
		last := dotted[len(dotted)-1]
		last = strings.TrimSpace(last)
		if isExceptionToken(last) {
			return last
		}
	}
	return ""
}

func isExceptionToken(tok string) bool {
	if tok == "" {
		return false
	}
	if tok[0] < 'A' || tok[0] > 'Z' {
		return false
	}
	suffixes := []string{"Error", "Exception", "Warning"}
	for _, suf := range suffixes {
		if strings.HasSuffix(tok, suf) {
			return true
		}
	}
	return false
}
