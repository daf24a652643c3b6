package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cogc/internal/ir"
	"cogc/internal/lint"
	"cogc/internal/llmclient"
)

// TemplateFile is one skeleton file the template stratum owns outright
// or partially (via embedded slots).
type TemplateFile struct {
	Path    string
	Content string
}

// Emitter drives one full emission pass over an ApplicationIR: classify
// every planned output path, render the template stratum, call the AST
// generators for the AST stratum, fill LLM slots under slot discipline,
// lint every result, and record it all in a Manifest.
type Emitter struct {
	llm      llmclient.Client
	forbidden []string // spec entity/field names that must never appear as literals
}

// New returns an Emitter. forbidden is the full list of domain
// identifiers (entity and field names) the lint pass treats as
// forbidden literals outside IR-substituted positions.
func New(llm llmclient.Client, forbidden []string) *Emitter {
	return &Emitter{llm: llm, forbidden: forbidden}
}

// EmitTemplateFile classifies and records a static template-stratum
// file with no slots. Writing to a template-protected path through any
// other path (AST or LLM) is the hard error this method's caller
// guards against by construction — only EmitTemplateFile is allowed to
// target those paths.
func (e *Emitter) EmitTemplateFile(m *Manifest, f TemplateFile) error {
	start := time.Now()
	stratum := Classify(f.Path)
	if stratum != StratumTemplate {
		return fmt.Errorf("emitter: %s classified as %s, not template; use the matching Emit method", f.Path, stratum)
	}
	m.Add(FileRecord{
		Path:      f.Path,
		Stratum:   StratumTemplate,
		Source:    "template:" + f.Path,
		ElapsedMs: time.Since(start).Milliseconds(),
		Status:    ValidationOK,
	})
	return nil
}

// EmitASTFile records one AST-stratum file produced by a pure
// IR -> source string generator. content is the generator's output;
// source names which generator produced it (e.g.
// "ast:emit_migration_column"); atomIDs names the IR atoms it read.
// The forbidden-literal lint does not run here: AST generators only
// ever write a field/entity name where IR substitution put it there by
// construction, so this stratum cannot produce the hard-coded-identifier
// failure mode the lint exists to catch.
func (e *Emitter) EmitASTFile(m *Manifest, path, source, content string, atomIDs []string) (string, error) {
	start := time.Now()
	if IsTemplateProtected(path) {
		m.Add(FileRecord{Path: path, Stratum: StratumAST, Source: source, Status: ValidationTemplateGuard})
		return "", fmt.Errorf("emitter: %s is template-protected, AST stratum may not write it", path)
	}
	m.Add(FileRecord{
		Path:      path,
		Stratum:   StratumAST,
		Source:    source,
		AtomIDs:   atomIDs,
		ElapsedMs: time.Since(start).Milliseconds(),
		Status:    ValidationOK,
	})
	return content, nil
}

// slotFillResponse is the structured shape an LLM_SLOT completion must
// match — a single field carrying the body text to splice in.
type slotFillResponse struct {
	Body string `json:"body"`
}

// EmitLLMSlot fills one slot inside a skeleton file's template text via
// the LLM stratum, validating the result against the slot's
// constraints (slot discipline) and running the
// forbidden-literal lint before splicing, falling back to fallback on
// repeated rejection. If path is template-protected this is a hard
// error — the LLM stratum may never write there even via a slot.
func (e *Emitter) EmitLLMSlot(ctx context.Context, m *Manifest, path string, s Slot, systemPrompt, userPrompt, fallback string, atomIDs []string) (string, error) {
	start := time.Now()
	if IsTemplateProtected(path) {
		m.Add(FileRecord{Path: path, Stratum: StratumLLM, Source: "llm_slot:" + s.Name, Status: ValidationTemplateGuard})
		return "", fmt.Errorf("emitter: %s is template-protected, LLM stratum may not write it", path)
	}

	tokensIn, tokensOut := 0, 0
	status := ValidationOK
	body, err := Fill(s, func(slot Slot) (string, error) {
		resp, cerr := e.llm.Complete(ctx, llmclient.Request{
			Slot:         "emitter.slot." + slot.Name,
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Schema:       slotFillSchema,
		})
		if cerr != nil {
			return "", cerr
		}
		tokensIn += resp.TokensIn
		tokensOut += resp.TokensOut
		var parsed slotFillResponse
		if jerr := json.Unmarshal(resp.JSON, &parsed); jerr != nil {
			return "", jerr
		}
		if lerr := lint.CheckSlotContainment(parsed.Body); lerr != nil {
			return "", lerr
		}
		if findings := lint.ScanForbiddenLiterals(parsed.Body, e.forbidden, nil); len(findings) > 0 {
			return "", fmt.Errorf("emitter: slot %q body contains forbidden literal", slot.Name)
		}
		return parsed.Body, nil
	}, fallback)

	if err != nil {
		status = ValidationSlotRejected
	} else if body == fallback {
		status = ValidationSlotFallback
	}

	m.Add(FileRecord{
		Path:      path,
		Stratum:   StratumLLM,
		Source:    "llm_slot:" + s.Name,
		AtomIDs:   atomIDs,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		ElapsedMs: time.Since(start).Milliseconds(),
		Status:    status,
	})
	return body, err
}

var slotFillSchema = json.RawMessage(`{
  "type": "object",
  "properties": {"body": {"type": "string"}},
  "required": ["body"]
}`)

// ForbiddenLiteralsFromDomain collects every entity and field name in
// dom as the lint pass's forbidden-literal set: the domain's entity
// names appearing outside IR-substituted positions.
func ForbiddenLiteralsFromDomain(dom ir.Domain) []string {
	var out []string
	for _, e := range dom.Entities {
		out = append(out, e.Name)
		for _, f := range e.Fields {
			out = append(out, f.Name)
		}
	}
	return out
}
