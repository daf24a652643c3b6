// Package lint implements the emitter's forbidden-literal scan and
// slot-containment check: a lint step scans output for
// forbidden literals and fails emission if any are found. Grounded
// on the shape of the teacher's `internal/core/validator_syntax.go` and
// `validator_paranoid.go` literal/pattern scanners — narrowed here to
// the two checks StratifiedEmitter actually needs, not the teacher's
// full paranoid-mode file/exec/dir audit stack (see DESIGN.md).
package lint

import (
	"fmt"
	"strings"
)

// Finding is one lint violation.
type Finding struct {
	Rule    string
	Literal string
	Line    int
}

// ScanForbiddenLiterals reports every occurrence of a domain identifier
// (entity or field name pulled straight from the application spec, not
// substituted through IR) appearing in source outside of
// allowedPositions: the emitter never emits a hard-coded domain identifier.
//
// allowedPositions are byte offsets into source where an identifier is
// permitted (the IR-substituted positions the caller already tracked
// while templating); a literal occurrence outside all of them is a
// finding.
func ScanForbiddenLiterals(source string, forbidden []string, allowedPositions []Span) []Finding {
	var findings []Finding
	lines := strings.Split(source, "\n")
	offset := 0
	for lineNo, line := range lines {
		for _, lit := range forbidden {
			if lit == "" {
				continue
			}
			idx := strings.Index(line, lit)
			for idx >= 0 {
				abs := offset + idx
				if !coveredBy(abs, len(lit), allowedPositions) {
					findings = append(findings, Finding{
						Rule:    "forbidden_literal",
						Literal: lit,
						Line:    lineNo + 1,
					})
				}
				next := strings.Index(line[idx+1:], lit)
				if next < 0 {
					break
				}
				idx = idx + 1 + next
			}
		}
		offset += len(line) + 1
	}
	return findings
}

// Span is a byte range [Start, Start+Len) within a source string.
type Span struct {
	Start int
	Len   int
}

func coveredBy(start, length int, spans []Span) bool {
	end := start + length
	for _, s := range spans {
		if start >= s.Start && end <= s.Start+s.Len {
			return true
		}
	}
	return false
}

// CheckSlotContainment verifies that an LLM-produced slot body contains
// none of the paired markers themselves — an emission that echoes
// LLM_SLOT:start/end back into its own body has escaped slot discipline
// and must be rejected before splicing.
func CheckSlotContainment(body string) error {
	if strings.Contains(body, "LLM_SLOT:start") || strings.Contains(body, "LLM_SLOT:end") {
		return fmt.Errorf("lint: slot body must not contain slot markers")
	}
	return nil
}
