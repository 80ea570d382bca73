package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Relay validation
	for i, relay := range cfg.Relays.Defaults {
		if !strings.HasPrefix(relay, "ws://") && !strings.HasPrefix(relay, "wss://") {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("relays.defaults[%d]", i),
				Message: fmt.Sprintf("relay URL must start with ws:// or wss://, got %q", relay),
			})
		}
	}
	if cfg.Relays.TimeoutSeconds < 0 || cfg.Relays.TimeoutSeconds > 300 {
		issues = append(issues, ValidationIssue{
			Path:    "relays.timeoutSeconds",
			Message: fmt.Sprintf("timeout must be 0-300 seconds, got %d", cfg.Relays.TimeoutSeconds),
		})
	}

	// Media validation
	if cfg.Media.Host != "" && !strings.HasPrefix(cfg.Media.Host, "http://") && !strings.HasPrefix(cfg.Media.Host, "https://") {
		issues = append(issues, ValidationIssue{
			Path:    "media.host",
			Message: fmt.Sprintf("host must start with http:// or https://, got %q", cfg.Media.Host),
		})
	}
	if cfg.Media.MaxBytes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "media.maxBytes",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Media.MaxBytes),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	return issues
}
