// Package attribute implements the causal attributor: it links a
// failing TestScenario to the most specific IR element
// responsible, scored by a blended confidence term. Grounded on
// `internal/northstar/guardian.go`/`observer.go`'s chain-of-custody
// observation shape (a "guardian" watching invariants and reporting
// why one broke) generalized from watching agent actions to watching
// IR elements, and `internal/embedding/engine.go`'s cosine-similarity
// search generalized from code search to violation/pattern similarity.
package attribute

import (
	"context"
	"fmt"
	"strings"

	"cogc/internal/classify"
	"cogc/internal/ir"
)

// Link is one hop in a CausalChain.
type Link struct {
	Kind string // "scenario", "endpoint", "flow", "step", "field_constraint"
	Ref  string // stable identifier within its kind
}

// Chain is the attribution path from a failing scenario down to the
// IR element responsible, plus the confidence score ranking it
// against other candidate chains for the same violation.
type Chain struct {
	Links      []Link
	Confidence float64
}

// Weights are the α·history + β·ir_context + γ·semantic_similarity
// blend coefficients for scoring candidate causal chains.
type Weights struct {
	History            float64
	IRContext          float64
	SemanticSimilarity float64
}

// DefaultWeights sums to 1 so Confidence lands in [0, 1] when its
// three inputs do.
func DefaultWeights() Weights {
	return Weights{History: 0.3, IRContext: 0.4, SemanticSimilarity: 0.3}
}

// SimilarityFunc computes a [0,1] semantic similarity between a
// violation's text and a stored pattern/IR element's text — the
// embedding-cosine-similarity term. Injected so attribute need not
// import an embedding engine directly; internal/learning supplies the
// concrete implementation over its stored pattern corpus.
type SimilarityFunc func(ctx context.Context, violationText, candidateText string) (float64, error)

// Attributor builds CausalChains for one violation against an ApplicationIR.
type Attributor struct {
	weights    Weights
	similarity SimilarityFunc
}

// New builds an Attributor. similarity may be nil, in which case the
// semantic_similarity term is treated as zero.
func New(weights Weights, similarity SimilarityFunc) *Attributor {
	return &Attributor{weights: weights, similarity: similarity}
}

// Attribute builds the CausalChain for violation v against app,
// narrowing TestScenario -> Endpoint -> Flow/Step -> FieldConstraint
// as far as the classifier category and stack frames let it go.
// historyScore is the fraction of past occurrences of this violation's
// canonical key that were attributed to the same chain (0 if novel).
func (a *Attributor) Attribute(ctx context.Context, v classify.Violation, app ir.ApplicationIR, stackFrames []string, historyScore float64) (Chain, error) {
	chain := Chain{Links: []Link{{Kind: "scenario", Ref: v.Endpoint}}}

	endpoint, ok := findEndpoint(app, v.Endpoint)
	if !ok {
		chain.Confidence = a.score(historyScore, 0, 0)
		return chain, nil
	}
	chain.Links = append(chain.Links, Link{Kind: "endpoint", Ref: endpoint.OperationID})

	flow, ok := matchFlowByStackFrames(app, endpoint, stackFrames)
	irContext := 0.5
	if ok {
		chain.Links = append(chain.Links, Link{Kind: "flow", Ref: flow.Name})
		irContext = 0.8

		if step, idx, ok := matchStepByCategory(flow, v); ok {
			chain.Links = append(chain.Links, Link{Kind: "step", Ref: fmt.Sprintf("%s[%d]", flow.Name, idx)})
			_ = step
			irContext = 1.0
		}
	}

	var semantic float64
	if a.similarity != nil {
		s, err := a.similarity(ctx, v.Endpoint, flow.Name)
		if err != nil {
			return Chain{}, fmt.Errorf("attribute: computing semantic similarity: %w", err)
		}
		semantic = s
	}

	chain.Confidence = a.score(historyScore, irContext, semantic)
	return chain, nil
}

func (a *Attributor) score(history, irContext, semantic float64) float64 {
	return a.weights.History*history + a.weights.IRContext*irContext + a.weights.SemanticSimilarity*semantic
}

func findEndpoint(app ir.ApplicationIR, path string) (ir.Endpoint, bool) {
	normalized := normalizePath(path)
	for _, ep := range app.API.Endpoints {
		if normalizePath(ep.Path) == normalized {
			return ep, true
		}
	}
	return ir.Endpoint{}, false
}

// normalizePath replaces numeric/UUID path segments with {id} so a
// concrete smoke-run path like /orders/42 matches the IR's
// /orders/{id} declaration.
func normalizePath(path string) string {
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

func matchFlowByStackFrames(app ir.ApplicationIR, endpoint ir.Endpoint, frames []string) (ir.Flow, bool) {
	for _, f := range app.Behavior.Flows {
		if f.SourceEntity == endpoint.Entity || f.TargetEntity == endpoint.Entity || f.CreatesEntity == endpoint.Entity {
			return f, true
		}
	}
	for _, frame := range frames {
		for _, f := range app.Behavior.Flows {
			if strings.Contains(frame, f.Name) {
				return f, true
			}
		}
	}
	return ir.Flow{}, false
}

func matchStepByCategory(flow ir.Flow, v classify.Violation) (ir.Step, int, bool) {
	want := stepKindForCategory(classify.Classify(v))
	for i, s := range flow.Steps {
		if s.Kind == want {
			return s, i, true
		}
	}
	if len(flow.Steps) > 0 {
		return flow.Steps[0], 0, true
	}
	return ir.Step{}, 0, false
}

func stepKindForCategory(c classify.Category) ir.StepKind {
	switch c {
	case classify.CategoryDatabase:
		return ir.StepCreate
	case classify.CategoryValidation:
		return ir.StepRead
	case classify.CategoryService:
		return ir.StepUpdate
	default:
		return ir.StepTransition
	}
}
