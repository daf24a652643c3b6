package config

// LLMConfig configures the schema-constrained LLM client the emitter
// and repair orchestrator call into for declared slots.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic or gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Timeout  string `yaml:"timeout"`
}

// DefaultLLMConfig matches the teacher's Anthropic-first default provider choice.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet",
		Timeout:  "60s",
	}
}
