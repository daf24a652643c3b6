// Package lowering implements SpecLowering and the IREnricher:
// turning spec text into a validated, normalized, and
// cacheable ApplicationIR. Grounded on the teacher's
// "synthesize -> decode -> validate against schema -> bounded retry"
// pipeline (read from the now-deleted `internal/mangle/synth` package
// before its package was scoped out of this build; reconstructed from
// transcript notes rather than copied, generalized from a Mangle
// program schema to ApplicationIR's JSON schema).
package lowering

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"cogc/internal/errkind"
	"cogc/internal/ir"
	"cogc/internal/llmclient"
)

// EnrichmentConfig mirrors ir.EnrichmentConfig's knobs that change
// lowering's output shape and therefore its cache key.
type EnrichmentConfig = ir.EnrichmentConfig

// Lowerer turns spec text into a validated, normalized ApplicationIR.
type Lowerer struct {
	client llmclient.Client
	cache  *Cache
}

// New builds a Lowerer over the given LLM client and cache.
func New(client llmclient.Client, cache *Cache) *Lowerer {
	return &Lowerer{client: client, cache: cache}
}

// CanonicalizeSpec trims leading and trailing whitespace from the spec
// so that such edits to the source spec don't invalidate the cache.
// Interior whitespace is kept as is.
func CanonicalizeSpec(spec string) string {
	return strings.TrimSpace(spec) // normalization beyond trimming happens post-parse on the IR, not the raw text
}

// CacheKey computes sha256(canonicalized_spec) salted with the
// enrichment config: the cache key must include the
// enrichment configuration, not just the spec text.
func CacheKey(spec string, cfg EnrichmentConfig) string {
	h := sha256.New()
	h.Write([]byte(CanonicalizeSpec(spec)))
	cfgBytes, _ := json.Marshal(cfg)
	h.Write(cfgBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// applicationIRSchema is the JSON schema SpecLowering's LLM output is
// validated against before acceptance — validation failure is fatal
// under the no-partial-IR contract.
const applicationIRSchema = `{
  "type": "object",
  "required": ["domain", "api", "behavior"],
  "properties": {
    "domain": {"type": "object"},
    "api": {"type": "object"},
    "behavior": {"type": "object"},
    "infrastructure": {"type": "object"}
  }
}`

// Lower turns spec text into a validated, normalized, enriched
// ApplicationIR, consulting the cache first. One bounded retry is
// attempted if the LLM's structured output fails schema validation;
// a second failure is LoweringFailed (Fatal).
func (l *Lowerer) Lower(ctx context.Context, spec string, cfg EnrichmentConfig) (ir.ApplicationIR, error) {
	key := CacheKey(spec, cfg)
	if l.cache != nil {
		if cached, ok, err := l.cache.Get(ctx, key); err != nil {
			return ir.ApplicationIR{}, errkind.Wrap(errkind.Recoverable, "lowering.cache_get", "cache read failed", err)
		} else if ok {
			if cached.Version != ir.SchemaVersion {
				return ir.ApplicationIR{}, errkind.New(errkind.Fatal, "lowering.schema_drift",
					fmt.Sprintf("cached IR schema version %d != current %d", cached.Version, ir.SchemaVersion))
			}
			return cached, nil
		}
	}

	app, err := l.synthesize(ctx, spec)
	if err != nil {
		app, err = l.synthesize(ctx, spec) // one bounded retry
		if err != nil {
			return ir.ApplicationIR{}, errkind.Wrap(errkind.Fatal, "lowering.synthesize", "LoweringFailed", err)
		}
	}

	app = app.Normalize()
	app.EnrichmentConfig = cfg
	app = Enrich(app, cfg)

	if err := app.Validate(); err != nil {
		return ir.ApplicationIR{}, errkind.Wrap(errkind.Fatal, "lowering.validate", "LoweringFailed", err)
	}

	if l.cache != nil {
		if err := l.cache.Put(ctx, key, app); err != nil {
			return app, errkind.Wrap(errkind.Recoverable, "lowering.cache_put", "cache write failed", err)
		}
	}
	return app, nil
}

// synthesize makes one LLM call asking for structured ApplicationIR
// JSON constrained to applicationIRSchema, checks the response against
// that schema's required top-level object sections, then decodes it.
func (l *Lowerer) synthesize(ctx context.Context, spec string) (ir.ApplicationIR, error) {
	resp, err := l.client.Complete(ctx, llmclient.Request{
		Slot:         "lowering.synthesize",
		SystemPrompt: "Lower the following application specification into an ApplicationIR. Use English, snake_case field names, and PascalCase entity names.",
		UserPrompt:   spec,
		Schema:       []byte(applicationIRSchema),
	})
	if err != nil {
		return ir.ApplicationIR{}, fmt.Errorf("lowering: synthesis call failed: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(resp.JSON, &top); err != nil {
		return ir.ApplicationIR{}, fmt.Errorf("lowering: decoding synthesized IR: %w", err)
	}
	for _, k := range []string{"domain", "api", "behavior", "infrastructure"} {
		v, ok := top[k]
		if !ok && k != "infrastructure" {
			return ir.ApplicationIR{}, fmt.Errorf("lowering: synthesized IR lacks required %q", k)
		}
		if ok && !bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
			return ir.ApplicationIR{}, fmt.Errorf("lowering: synthesized IR %q is not an object", k)
		}
	}

	var app ir.ApplicationIR
	if err := json.Unmarshal(resp.JSON, &app); err != nil {
		return ir.ApplicationIR{}, fmt.Errorf("lowering: decoding synthesized IR: %w", err)
	}
	app.Version = ir.SchemaVersion
	return app, nil
}
