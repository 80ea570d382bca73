package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Relays: RelaysConfig{
			Defaults:       []string{"wss://relay.sable.chat"},
			TimeoutSeconds: 10,
		},
		Media: MediaConfig{
			Host:     "https://media.sable.chat",
			MaxBytes: 10 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}
