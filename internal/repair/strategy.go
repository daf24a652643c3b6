// Package repair implements the repair strategies and
// MutationHistory/IRBackpropagator. Strategies
// are a tagged variant dispatched by the violation's classify.Category,
// grounded on the teacher's `internal/campaign` orchestrator files
// (campaign steps as an ordered, resumable sequence of typed actions)
// and the diff-producing shape of `internal/diff/diff.go` (kept and
// wired here as the unified-diff engine behind MutationHistory).
package repair

import (
	"context"
	"fmt"

	"cogc/internal/attribute"
	"cogc/internal/classify"
	"cogc/internal/diff"
	"cogc/internal/ir"
)

// Fix is the result of one strategy's repair attempt against one file.
type Fix struct {
	FilePath     string
	FixType      string
	Description  string
	NewContent   string
	MutationDiff string
	Success      bool
}

// Strategy is the tagged-variant interface every repair strategy
// implements: Database, Validation, Service, Import, Route,
// LLMFallback. Exactly one concrete type per variant, matched by
// AppliesTo in priority order (structural strategies before the LLM
// fallback).
type Strategy interface {
	// Name identifies the variant for logging and MutationHistory tags.
	Name() string
	// AppliesTo reports whether this strategy can address v.
	AppliesTo(v classify.Violation, chain attribute.Chain) bool
	// ProposeFix drafts a Fix without touching disk.
	ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error)
	// ApplyFix writes the proposed fix into source, returning the new
	// file content so the caller can persist it and feed MutationHistory.
	ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error)
	// RecordOutcome lets a strategy update its own learned state (e.g.
	// a pattern replay hit-rate) after a fix's real-world outcome is known.
	RecordOutcome(fix Fix, succeeded bool)
}

// Outcome is what a Strategy run produced, for MutationHistory and the
// budget tracker.
type Outcome struct {
	Strategy string
	Fix      Fix
	Succeeded bool
}

// baseDiff computes the unified mutation diff for a fix using the
// shared diff engine (sergi/go-diff under internal/diff), so every
// strategy's Fix.MutationDiff is produced the same way.
func baseDiff(path, before, after string) string {
	fd := diff.DefaultEngine.ComputeDiff(path, path, before, after)
	var out string
	for _, h := range fd.Hunks {
		out += fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			prefix := " "
			switch l.Type {
			case diff.LineAdded:
				prefix = "+"
			case diff.LineRemoved:
				prefix = "-"
			}
			out += prefix + l.Content + "\n"
		}
	}
	return out
}

// Orderer returns the strategies in the order they are passed, which is
// the order the RepairOrchestrator tries them; it does not sort them.
// Registry passes structural, narrowest-category strategies first and
// LLMFallback last since it is the costliest and least predictable.
func Orderer(strategies ...Strategy) []Strategy {
	return strategies
}

// Registry returns the default strategy set in its
// priority order: an optional learned-pattern-replay strategy first
// (nil when the caller has no LearningStore-backed replay wired yet),
// then the five structural strategies, then the LLM fallback last.
func Registry(patternReplay, llmFallback Strategy) []Strategy {
	return Orderer(
		patternReplay,
		&DatabaseStrategy{},
		&ValidationStrategy{},
		&ServiceStrategy{},
		&ImportStrategy{},
		&RouteStrategy{},
		llmFallback,
	)
}

// Select returns the first applicable strategy in priority order, or
// nil if none (including the fallback) applies — which should only
// happen if the fallback itself is nil.
func Select(strategies []Strategy, v classify.Violation, chain attribute.Chain) Strategy {
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if s.AppliesTo(v, chain) {
			return s
		}
	}
	return nil
}

// entityFieldTarget derives the IR target_path a strategy's fix maps
// back to, e.g. "domain.entity.Order.field.customer_id.nullable".
func entityFieldTarget(app ir.ApplicationIR, chain attribute.Chain, suffix string) string {
	entity := ""
	for _, l := range chain.Links {
		if l.Kind == "endpoint" {
			if ep, ok := app.API.EndpointByOperationID(l.Ref); ok {
				entity = ep.Entity
			}
		}
	}
	if entity == "" {
		return suffix
	}
	return fmt.Sprintf("domain.entity.%s.%s", entity, suffix)
}
