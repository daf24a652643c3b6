package config

import "fmt"

// RepairConfig bounds the RepairOrchestrator's convergence loop.
type RepairConfig struct {
	MaxIterations      int     `yaml:"max_repair_iterations"`
	TargetPassRate     float64 `yaml:"target_pass_rate"`
	PerViolationBudget int     `yaml:"per_violation_budget"`
	ConvergenceEpsilon float64 `yaml:"convergence_epsilon"`
	IRCacheTTLSeconds  int     `yaml:"ir_cache_ttl_seconds"`
}

// DefaultRepairConfig returns the three-iteration convergence defaults.
func DefaultRepairConfig() RepairConfig {
	return RepairConfig{
		MaxIterations:      3,
		TargetPassRate:     0.8,
		PerViolationBudget: 2,
		ConvergenceEpsilon: 0.01,
		IRCacheTTLSeconds:  604800,
	}
}

func (c RepairConfig) validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_repair_iterations must be >= 1")
	}
	if c.TargetPassRate <= 0 || c.TargetPassRate > 1 {
		return fmt.Errorf("target_pass_rate must be in (0, 1]")
	}
	if c.PerViolationBudget < 1 {
		return fmt.Errorf("per_violation_budget must be >= 1")
	}
	if c.ConvergenceEpsilon <= 0 {
		return fmt.Errorf("convergence_epsilon must be > 0")
	}
	if c.IRCacheTTLSeconds < 0 {
		return fmt.Errorf("ir_cache_ttl_seconds must be >= 0")
	}
	return nil
}
