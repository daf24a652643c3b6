package emitter

import (
	"fmt"
	"strings"
)

// slotStart/slotEnd are the paired markers that bound an LLM-writable
// region inside an otherwise template-authored file.
const (
	slotStart = "LLM_SLOT:start"
	slotEnd   = "LLM_SLOT:end"
)

// SlotConstraint is the typed contract an LLM-filled slot must satisfy.
// Grounded on internal/articulation's prompt-assembly guardrails
// (reconstructed from transcript notes — that package was scoped out
// before this build).
type SlotConstraint struct {
	Name            string
	MaxLines        int
	MustEndWithReturn bool
	ForbidImports   bool
	ForbidClassDefs bool
	ForbidSideEffectFuncs []string // e.g. "os.system", "subprocess.run"
}

// Slot is one parsed LLM_SLOT region found in a template-stratum file.
type Slot struct {
	Name       string
	Before     string // file content up to and including the start-marker line
	After      string // file content from the end-marker line onward
	Constraint SlotConstraint
}

// FindSlots scans source for LLM_SLOT:start/end marker pairs and
// returns each as a Slot. Markers must appear one per line as a
// comment; the slot name is whatever follows "LLM_SLOT:start" on that
// line, trimmed.
func FindSlots(source string) ([]Slot, error) {
	lines := strings.Split(source, "\n")
	var slots []Slot
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i], slotStart) {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(lines[i], slotStart, 2)[1])
		name = strings.TrimLeft(name, ":# ")
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], slotEnd) {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("emitter: slot %q at line %d missing matching %s", name, i+1, slotEnd)
		}
		slots = append(slots, Slot{
			Name:   name,
			Before: strings.Join(lines[:i+1], "\n"),
			After:  strings.Join(lines[end:], "\n"),
		})
		i = end
	}
	return slots, nil
}

// ValidateSlotFill checks LLM-produced body text against constraint
// before it may be spliced between a slot's markers. A violation here
// triggers the reject-retry-once-then-fallback policy in Fill, never a
// silent write.
func ValidateSlotFill(body string, constraint SlotConstraint) error {
	bodyLines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if constraint.MaxLines > 0 && len(bodyLines) > constraint.MaxLines {
		return fmt.Errorf("emitter: slot %q exceeds max lines (%d > %d)", constraint.Name, len(bodyLines), constraint.MaxLines)
	}
	if constraint.ForbidImports {
		for _, l := range bodyLines {
			t := strings.TrimSpace(l)
			if strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "from ") {
				return fmt.Errorf("emitter: slot %q must not contain imports", constraint.Name)
			}
		}
	}
	if constraint.ForbidClassDefs {
		for _, l := range bodyLines {
			if strings.HasPrefix(strings.TrimSpace(l), "class ") {
				return fmt.Errorf("emitter: slot %q must not define classes", constraint.Name)
			}
		}
	}
	for _, fn := range constraint.ForbidSideEffectFuncs {
		if strings.Contains(body, fn) {
			return fmt.Errorf("emitter: slot %q calls forbidden side-effecting function %q", constraint.Name, fn)
		}
	}
	if constraint.MustEndWithReturn {
		last := strings.TrimSpace(bodyLines[len(bodyLines)-1])
		if !strings.HasPrefix(last, "return") {
			return fmt.Errorf("emitter: slot %q must end with a return statement", constraint.Name)
		}
	}
	return nil
}

// FillFunc produces a slot body given its name and surrounding context.
// Returning an error models an LLM call failure; ValidateSlotFill
// failures are handled by Fill, not by FillFunc.
type FillFunc func(s Slot) (string, error)

// Fill resolves a Slot by calling generate, validating the result
// against s.Constraint, retrying once on failure, and falling back to
// the caller-supplied fallback body if the retry also fails: reject,
// retry once, then fall back. The fallback is validated too, and an
// error is returned if it violates the constraint. It never writes an
// unvalidated body.
func Fill(s Slot, generate FillFunc, fallback string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		body, err := generate(s)
		if err != nil {
			continue
		}
		if verr := ValidateSlotFill(body, s.Constraint); verr == nil {
			return body, nil
		}
	}
	if verr := ValidateSlotFill(fallback, s.Constraint); verr != nil {
		return "", fmt.Errorf("emitter: slot %q fallback also violates constraint: %w", s.Name, verr)
	}
	return fallback, nil
}
