package learning

import "strings"

// minKeywordLen discards keywords shorter than this.
const minKeywordLen = 3

// Keywords extracts the domain-agnostic keyword set from a flow name
// like "add_item_to_cart" -> {add, item, cart}. Keywords shorter than
// minKeywordLen are discarded; the store never special-cases any
// specific keyword.
func Keywords(flowName string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.FieldsFunc(flowName, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		tok = strings.ToLower(tok)
		if len(tok) < minKeywordLen {
			continue
		}
		out[tok] = true
	}
	return out
}

// tokenize splits a pattern field into lowercase keyword-length tokens
// for intersection against a flow's keyword set.
func tokenize(s string) map[string]bool {
	return Keywords(strings.ReplaceAll(s, "/", "_"))
}

// MatchScore counts how many of flowKeywords intersect the anti-
// pattern's entity_pattern/endpoint_pattern tokens — the domain-
// agnostic semantic-matching rule for learned-pattern retrieval.
func MatchScore(flowKeywords map[string]bool, a GenerationAntiPattern) int {
	candidate := tokenize(a.EntityPattern)
	for k := range tokenize(a.EndpointPattern) {
		candidate[k] = true
	}
	score := 0
	for k := range flowKeywords {
		if candidate[k] {
			score++
		}
	}
	return score
}

// MatchFixPatternSignature intersects flowKeywords against an error
// signature's tokens the same way, for learned-pattern replay lookups
// keyed loosely (not exactly) by flow name.
func MatchFixPatternSignature(flowKeywords map[string]bool, signature string) int {
	candidate := tokenize(signature)
	score := 0
	for k := range flowKeywords {
		if candidate[k] {
			score++
		}
	}
	return score
}

// SelectForPrompt drops candidates whose OccurrenceCount is below
// minOccurrences or whose MatchScore against flowName's keywords is 0,
// ranks the rest by score (descending), then truncates to
// maxPatterns, per the max_patterns_per_prompt and
// min_pattern_occurrences configuration knobs.
func SelectForPrompt(flowName string, candidates []GenerationAntiPattern, maxPatterns, minOccurrences int) []GenerationAntiPattern {
	kw := Keywords(flowName)
	type scored struct {
		pattern GenerationAntiPattern
		score   int
	}
	var ranked []scored
	for _, c := range candidates {
		if c.OccurrenceCount < minOccurrences {
			continue
		}
		s := MatchScore(kw, c)
		if s == 0 {
			continue
		}
		ranked = append(ranked, scored{pattern: c, score: s})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > maxPatterns {
		ranked = ranked[:maxPatterns]
	}
	out := make([]GenerationAntiPattern, len(ranked))
	for i, r := range ranked {
		out[i] = r.pattern
	}
	return out
}

// RenderWarning formats one anti-pattern as the "⚠️ AVOID ... ✅
// PREFER ..." prompt fragment LLMStratum prepends to generation
// prompts.
func RenderWarning(a GenerationAntiPattern) string {
	return "⚠️ AVOID: " + a.WrongSnippet + "\n✅ PREFER: " + a.CorrectSnippet
}
