package config

import "fmt"

// ExecutionMode gates which strata the Stratified Emitter may use.
type ExecutionMode string

const (
	// ModeSafe disables the LLM stratum entirely: only Template and AST
	// strata run, and output is byte-identical across runs for a fixed IR.
	ModeSafe ExecutionMode = "SAFE"
	// ModeHybrid runs the LLM stratum only in declared slots and writes
	// learned patterns back to the LearningStore. Default.
	ModeHybrid ExecutionMode = "HYBRID"
	// ModeResearch relaxes slot enforcement and writes learned patterns
	// to a sandboxed store instead of the production LearningStore.
	ModeResearch ExecutionMode = "RESEARCH"
)

// QALevel selects how thorough SmokeRunner's verification pass is.
type QALevel string

const (
	// QAFast runs syntactic lint checks and in-process smoke only.
	QAFast QALevel = "FAST"
	// QAHeavy runs the full Docker lifecycle and full smoke battery.
	QAHeavy QALevel = "HEAVY"
)

// QualityGateEnvironment sets the minimum compliance thresholds and
// allowed warning/regression counts ComplianceValidator enforces.
type QualityGateEnvironment string

const (
	EnvDev     QualityGateEnvironment = "DEV"
	EnvStaging QualityGateEnvironment = "STAGING"
	EnvProd    QualityGateEnvironment = "PROD"
)

// ExecutionConfig is the top-level enum configuration.
type ExecutionConfig struct {
	Mode                      ExecutionMode          `yaml:"execution_mode"`
	StrictMode                bool                   `yaml:"strict_mode"`
	QALevel                   QALevel                `yaml:"qa_level"`
	EnforceDockerRuntime      bool                   `yaml:"enforce_docker_runtime"`
	DockerRebuildBetweenRepairs bool                 `yaml:"docker_rebuild_between_repairs"`
	QualityGateEnvironment    QualityGateEnvironment `yaml:"quality_gate_environment"`
}

// DefaultExecutionConfig returns the hybrid-mode, fast-QA defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Mode:                   ModeHybrid,
		StrictMode:             false,
		QALevel:                QAFast,
		EnforceDockerRuntime:   false,
		QualityGateEnvironment: EnvDev,
	}
}

func (c ExecutionConfig) validate() error {
	switch c.Mode {
	case ModeSafe, ModeHybrid, ModeResearch:
	default:
		return fmt.Errorf("execution_mode: unknown value %q", c.Mode)
	}
	switch c.QALevel {
	case QAFast, QAHeavy:
	default:
		return fmt.Errorf("qa_level: unknown value %q", c.QALevel)
	}
	switch c.QualityGateEnvironment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return fmt.Errorf("quality_gate_environment: unknown value %q", c.QualityGateEnvironment)
	}
	return nil
}
