// Package config holds the compiler's layered yaml-tagged configuration,
// one file per concern, matching the teacher's config package layout.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all cogc pipeline configuration.
type Config struct {
	Execution ExecutionConfig `yaml:"execution"`
	Repair    RepairConfig    `yaml:"repair"`
	Learning  LearningConfig  `yaml:"learning"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		Execution: DefaultExecutionConfig(),
		Repair:    DefaultRepairConfig(),
		Learning:  DefaultLearningConfig(),
		LLM:       DefaultLLMConfig(),
		Logging:   DefaultLoggingConfig(),
	}
}

// Load reads a yaml configuration file, applying DefaultConfig for any
// field the file omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every enum field holds a declared value and
// every numeric field is within its documented range.
func (c *Config) Validate() error {
	if err := c.Execution.validate(); err != nil {
		return err
	}
	if err := c.Repair.validate(); err != nil {
		return err
	}
	if err := c.Learning.validate(); err != nil {
		return err
	}
	return nil
}
