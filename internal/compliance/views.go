package compliance

import "cogc/internal/ir"

// View selects which of the three ComplianceValidator comparison
// strategies a Check runs under.
type View string

const (
	ViewSemantic View = "semantic"
	ViewRelaxed  View = "relaxed"
	ViewStrict   View = "strict"
)

// levenshteinThreshold is the Semantic view's entity-name fuzzy-match
// acceptance floor for fuzzy entity-name matching.
const levenshteinThreshold = 0.7

// Report is the three-view compliance report JSON shape.
type Report struct {
	Semantic ViewResult `json:"semantic"`
	Relaxed  ViewResult `json:"relaxed"`
	Strict   ViewResult `json:"strict"`
	Warnings []string   `json:"warnings"`
	Regressions []string `json:"regressions"`
}

// ViewResult is one view's pass/fail breakdown.
type ViewResult struct {
	Overall   float64 `json:"overall"`
	Entities  float64 `json:"entities"`
	Endpoints float64 `json:"endpoints"`
	Flows     float64 `json:"flows"`
	Constraints float64 `json:"constraints"`
}

// Validator compares code-extracted constraints against
// ApplicationIR's Validation.Rules under all three views.
type Validator struct {
	normalizer SemanticNormalizer
}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Check runs code's extracted constraints against app under view and
// returns the matched fraction plus any advisory warnings.
func (v *Validator) Check(app ir.ApplicationIR, code []Constraint, view View) (ViewResult, []string) {
	collapsed := CollapseDuplicates(code)
	var warnings []string

	total := len(app.Validation.Rules)
	matched := 0
	for key, rule := range app.Validation.Rules {
		c, ok := collapsed[key]
		if !ok {
			c, ok = v.fuzzyMatch(rule, collapsed, view)
		}
		if matchesUnderView(rule, c, ok, view) {
			matched++
		} else if view == ViewSemantic {
			warnings = append(warnings, "no semantic match for "+key)
		}
	}

	overall := 1.0
	if total > 0 {
		overall = float64(matched) / float64(total)
	}
	return ViewResult{Overall: overall, Constraints: overall}, warnings
}

func matchesUnderView(rule ir.ConstraintRule, c Constraint, found bool, view View) bool {
	if !found {
		return false
	}
	switch view {
	case ViewStrict:
		return rule.Entity == c.Entity && rule.Field == c.Field && rule.Type == c.Type && rule.Value == c.Value
	case ViewRelaxed:
		return rule.Type == c.Type
	default: // ViewSemantic
		return semanticEquivalentOperators(string(rule.Type), rule.Value, string(c.Type), c.Value)
	}
}

// fuzzyMatch searches collapsed for a constraint on an entity whose
// name is within levenshteinThreshold similarity of rule.Entity — the
// Semantic view's suffix-stripping + Levenshtein entity match.
func (v *Validator) fuzzyMatch(rule ir.ConstraintRule, collapsed map[string]Constraint, view View) (Constraint, bool) {
	if view != ViewSemantic {
		return Constraint{}, false
	}
	wantEntity := v.normalizer.NormalizeEntity(rule.Entity)
	for _, c := range collapsed {
		if c.Field != rule.Field || c.Type != rule.Type {
			continue
		}
		gotEntity := v.normalizer.NormalizeEntity(c.Entity)
		if similarity(wantEntity, gotEntity) >= levenshteinThreshold {
			return c, true
		}
	}
	return Constraint{}, false
}

// similarity returns a [0,1] Levenshtein-based similarity: 1 -
// distance/max(len(a), len(b)).
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

// levenshteinDistance computes the classic edit distance. No example
// repo in the pack imports a string-edit-distance library and the
// algorithm is small and self-contained, so it stays on the standard
// library rather than adding a dependency for ~20 lines (see
// DESIGN.md).
func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
