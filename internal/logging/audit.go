package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// AuditEventType names one pipeline audit event; each maps to a Mangle
// predicate so the audit trail can be queried declaratively the same
// way ICBR facts are, giving the scheduler's ordering guarantees a
// concrete append-only log to land on.
type AuditEventType string

const (
	AuditPipelinePhaseStart AuditEventType = "pipeline_phase_start"
	AuditPipelinePhaseEnd   AuditEventType = "pipeline_phase_end"
	AuditManifestWrite      AuditEventType = "manifest_write"
	AuditMutationApplied    AuditEventType = "mutation_applied"
	AuditRepairIteration    AuditEventType = "repair_iteration"
	AuditConvergence        AuditEventType = "convergence"
	AuditLearningPromotion  AuditEventType = "learning_promotion"
	AuditComplianceResult   AuditEventType = "compliance_result"
	AuditLLMCall            AuditEventType = "llm_call"
)

// AuditEvent is one append-only audit record.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"`
	EventType  AuditEventType `json:"event"`
	AppID      string         `json:"app_id"`
	Target     string         `json:"target"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	MangleFact string         `json:"mangle"`
}

// AuditLogger writes AuditEvents to an append-only JSON-lines file and
// renders each as a Mangle fact string for later ingestion into ICBR's
// engine or an ad hoc query tool.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens (creating if needed) the audit log at path.
func NewAuditLogger(path string) (*AuditLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: opening audit log %s: %w", path, err)
	}
	return &AuditLogger{file: f}, nil
}

// Close closes the underlying audit log file.
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Log appends one audit event, filling in Timestamp and MangleFact.
func (a *AuditLogger) Log(e AuditEvent) error {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	e.MangleFact = mangleFact(e)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("logging: marshaling audit event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return fmt.Errorf("logging: audit logger closed")
	}
	_, err = a.file.Write(append(data, '\n'))
	return err
}

func mangleFact(e AuditEvent) string {
	switch e.EventType {
	case AuditPipelinePhaseStart, AuditPipelinePhaseEnd:
		return fmt.Sprintf("pipeline_phase(%d, /%s, %q, %q, %v).",
			e.Timestamp, e.EventType, e.AppID, e.Target, e.Success)
	case AuditManifestWrite:
		return fmt.Sprintf("manifest_write(%d, %q, %q, %v).",
			e.Timestamp, e.AppID, e.Target, e.Success)
	case AuditMutationApplied:
		return fmt.Sprintf("mutation_applied(%d, %q, %q, %v).",
			e.Timestamp, e.AppID, e.Target, e.Success)
	case AuditRepairIteration:
		return fmt.Sprintf("repair_iteration(%d, %q, %d, %v).",
			e.Timestamp, e.AppID, e.DurationMs, e.Success)
	case AuditConvergence:
		return fmt.Sprintf("convergence(%d, %q, %q, %v).",
			e.Timestamp, e.AppID, e.Target, e.Success)
	case AuditLearningPromotion:
		return fmt.Sprintf("learning_promotion(%d, %q, %q).",
			e.Timestamp, e.AppID, e.Target)
	case AuditComplianceResult:
		return fmt.Sprintf("compliance_result(%d, %q, %q, %v).",
			e.Timestamp, e.AppID, e.Target, e.Success)
	case AuditLLMCall:
		return fmt.Sprintf("llm_call(%d, %q, %d, %v).",
			e.Timestamp, e.AppID, e.DurationMs, e.Success)
	default:
		return fmt.Sprintf("audit_event(%d, /%s, %q, %v).",
			e.Timestamp, e.EventType, e.Target, e.Success)
	}
}
