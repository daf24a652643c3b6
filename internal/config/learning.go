package config

import "fmt"

// LearningConfig bounds how many FixPattern/GenerationAntiPattern
// records the prompt assembler may inject into an LLM slot prompt.
type LearningConfig struct {
	MaxPatternsPerPrompt  int `yaml:"max_patterns_per_prompt"`
	MinPatternOccurrences int `yaml:"min_pattern_occurrences"`
}

// DefaultLearningConfig returns the conservative prompt-injection defaults.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		MaxPatternsPerPrompt:  5,
		MinPatternOccurrences: 2,
	}
}

func (c LearningConfig) validate() error {
	if c.MaxPatternsPerPrompt < 0 {
		return fmt.Errorf("max_patterns_per_prompt must be >= 0")
	}
	if c.MinPatternOccurrences < 1 {
		return fmt.Errorf("min_pattern_occurrences must be >= 1")
	}
	return nil
}
