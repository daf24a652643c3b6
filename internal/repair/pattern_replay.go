package repair

import (
	"context"
	"fmt"

	"cogc/internal/attribute"
	"cogc/internal/classify"
	"cogc/internal/learning"
)

// PatternReplayStrategy is the priority-1 strategy:
// before any structural strategy runs, look up the
// LearningStore for a FixPattern whose signature matches the
// violation and, if its stored template applies, replay it verbatim.
type PatternReplayStrategy struct {
	store        *learning.Store
	signature    func(classify.Violation) string
	lastSignature string
}

// NewPatternReplayStrategy wires a PatternReplayStrategy to store.
// signature derives the canonical error signature a violation is
// looked up by; callers typically pass repair.Key plus the
// classified category.
func NewPatternReplayStrategy(store *learning.Store, signature func(classify.Violation) string) *PatternReplayStrategy {
	return &PatternReplayStrategy{store: store, signature: signature}
}

func (s *PatternReplayStrategy) Name() string { return "pattern_replay" }

func (s *PatternReplayStrategy) AppliesTo(v classify.Violation, _ attribute.Chain) bool {
	if s.store == nil {
		return false
	}
	_, ok, err := s.store.FixPatternFor(s.signature(v))
	return err == nil && ok
}

func (s *PatternReplayStrategy) ProposeFix(ctx context.Context, v classify.Violation, chain attribute.Chain, source map[string]string) (Fix, error) {
	sig := s.signature(v)
	p, ok, err := s.store.FixPatternFor(sig)
	if err != nil {
		return Fix{}, fmt.Errorf("repair: pattern replay lookup: %w", err)
	}
	if !ok {
		return Fix{}, fmt.Errorf("repair: no stored pattern for signature %q", sig)
	}
	s.lastSignature = sig
	path, before := pickServiceFile(source, chain)
	after := p.Template
	return Fix{
		FilePath:     path,
		FixType:      p.FixType,
		Description:  fmt.Sprintf("replayed learned pattern for %s", sig),
		NewContent:   after,
		MutationDiff: baseDiff(path, before, after),
	}, nil
}

func (s *PatternReplayStrategy) ApplyFix(ctx context.Context, fix Fix, source map[string]string) (string, error) {
	return applyTextFix(source, fix)
}

func (s *PatternReplayStrategy) RecordOutcome(fix Fix, succeeded bool) {
	if s.store == nil || s.lastSignature == "" {
		return
	}
	_ = s.store.RecordFixOutcome(s.lastSignature, fix.FixType, fix.NewContent, succeeded)
}
