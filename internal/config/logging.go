package config

// LoggingConfig configures the zap operational logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`      // debug, info, warn, error
	Format    string `yaml:"format"`     // json, console
	AuditPath string `yaml:"audit_path"` // append-only audit-event-as-fact log
}

// DefaultLoggingConfig matches the teacher's production zap defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:     "info",
		Format:    "json",
		AuditPath: "cogc-audit.log",
	}
}
