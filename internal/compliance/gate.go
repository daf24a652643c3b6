package compliance

import "cogc/internal/config"

// GateStatus is the QualityGate's terminal verdict.
type GateStatus string

const (
	GatePassed GateStatus = "passed"
	GateFailed GateStatus = "failed"
)

// GateReport is the quality gate's report JSON shape.
type GateReport struct {
	Environment config.QualityGateEnvironment `json:"environment"`
	Status      GateStatus         `json:"status"`
	Checks      map[string]bool    `json:"checks"`
}

// EnvironmentThresholds are the minimum compliance/pass-rate bars and
// maximum warning/regression counts a GateReport must clear, varying
// by config.QualityGateEnvironment.
type EnvironmentThresholds struct {
	MinSemantic    float64
	MinRelaxed     float64
	MinStrict      float64
	MinPassRate    float64
	MaxWarnings    int
	MaxRegressions int
}

// DefaultThresholds returns the per-environment policy:
// PROD is strictest, DEV is most permissive.
func DefaultThresholds(env config.QualityGateEnvironment) EnvironmentThresholds {
	switch env {
	case config.EnvProd:
		return EnvironmentThresholds{MinSemantic: 0.95, MinRelaxed: 0.9, MinStrict: 0.8, MinPassRate: 0.95, MaxWarnings: 0, MaxRegressions: 0}
	case config.EnvStaging:
		return EnvironmentThresholds{MinSemantic: 0.9, MinRelaxed: 0.8, MinStrict: 0.6, MinPassRate: 0.85, MaxWarnings: 5, MaxRegressions: 0}
	default: // DEV
		return EnvironmentThresholds{MinSemantic: 0.7, MinRelaxed: 0.5, MinStrict: 0.3, MinPassRate: 0.8, MaxWarnings: 20, MaxRegressions: 2}
	}
}

// Gate evaluates a Report plus smoke pass rate and regression count
// against env's thresholds and produces the final GateReport.
func Gate(env config.QualityGateEnvironment, report Report, smokePassRate float64, regressionCount int) GateReport {
	th := DefaultThresholds(env)
	checks := map[string]bool{
		"semantic":    report.Semantic.Overall >= th.MinSemantic,
		"ir_relaxed":  report.Relaxed.Overall >= th.MinRelaxed,
		"ir_strict":   report.Strict.Overall >= th.MinStrict,
		"warnings":    len(report.Warnings) <= th.MaxWarnings,
		"regressions": regressionCount <= th.MaxRegressions,
		"smoke":       smokePassRate >= th.MinPassRate,
	}
	status := GatePassed
	for _, ok := range checks {
		if !ok {
			status = GateFailed
			break
		}
	}
	return GateReport{Environment: env, Status: status, Checks: checks}
}
