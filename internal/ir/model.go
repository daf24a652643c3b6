// Package ir defines ApplicationIR, the single typed source of truth the
// rest of the compiler reads and (in one place only) writes. Every
// sub-model is addressable by stable identifiers; no generator,
// validator, or repair step may read spec text directly once an
// ApplicationIR exists.
package ir

import "time"

// SchemaVersion is bumped whenever a breaking change is made to the shape
// of ApplicationIR. A cached IR whose Version does not match this value
// is schema-drifted and must be relowered from source (see
// Open Question decisions in DESIGN.md).
const SchemaVersion = 1

// InferenceSource tags why an endpoint/invariant was added by the
// IREnricher rather than stated in the spec.
type InferenceSource string

const (
	InferenceFromSpec            InferenceSource = "spec"
	InferenceCRUDBestPractice    InferenceSource = "crud_best_practice"
	InferenceInfraBestPractice   InferenceSource = "infra_best_practice"
	InferenceFromPatternBank     InferenceSource = "pattern_bank"
)

// ApplicationIR is constructed once per pipeline run and owned exclusively
// by the pipeline coordinator. Every component other than the
// IRBackpropagator borrows it immutably; the IRBackpropagator holds the
// single writable handle during repair (see internal/repair).
type ApplicationIR struct {
	Version   int       `json:"version" yaml:"version"`
	AppID     string    `json:"app_id" yaml:"app_id"`
	SpecHash  string    `json:"spec_hash" yaml:"spec_hash"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	Domain Domain `json:"domain" yaml:"domain"`
	API    API    `json:"api" yaml:"api"`
	Behavior Behavior `json:"behavior" yaml:"behavior"`
	Validation Validation `json:"validation" yaml:"validation"`
	Infrastructure Infrastructure `json:"infrastructure" yaml:"infrastructure"`

	// RepairHistory accumulates one record per IRBackpropagator
	// realignment. Only the IRBackpropagator writes it, and it only
	// appends.
	RepairHistory []RepairRecord `json:"repair_history" yaml:"repair_history"`

	// EnrichmentConfig is folded into the IR cache key so that two runs
	// with different enrichment settings never collide.
	EnrichmentConfig EnrichmentConfig `json:"enrichment_config" yaml:"enrichment_config"`
}

// EnrichmentConfig captures the knobs that change what IREnricher adds.
type EnrichmentConfig struct {
	StrictMode bool `json:"strict_mode" yaml:"strict_mode"`
}

// RepairRecord is one entry appended by IRBackpropagator after a
// successful repair iteration maps code mutations back onto the IR.
type RepairRecord struct {
	Iteration   int       `json:"iteration" yaml:"iteration"`
	AppliedAt   time.Time `json:"applied_at" yaml:"applied_at"`
	Description string    `json:"description" yaml:"description"`
	// TargetPath identifies the IR element realigned, e.g.
	// "domain.entity.Order.field.customer_id.nullable".
	TargetPath string `json:"target_path" yaml:"target_path"`
	FixType    string `json:"fix_type" yaml:"fix_type"`
}
