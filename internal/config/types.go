package config

// Config is the root configuration for sable.
type Config struct {
	Account string        `yaml:"account,omitempty"` // pubkey of the account to use; empty means the stored active account
	Relays  RelaysConfig  `yaml:"relays,omitempty"`
	Media   MediaConfig   `yaml:"media,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// RelaysConfig controls relay connections.
type RelaysConfig struct {
	Defaults       []string `yaml:"defaults,omitempty"`       // fallback relay set when a group or contact has none
	Token          string   `yaml:"token,omitempty"`          // session auth token, supports ${ENV_VAR}
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"` // per-request timeout
}

// MediaConfig controls attachment uploads.
type MediaConfig struct {
	Host     string `yaml:"host,omitempty"`     // media server base URL
	MaxBytes int64  `yaml:"maxBytes,omitempty"` // largest attachment accepted for upload
}

// StorageConfig controls local persistence.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite database path; empty places it under the data dir
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
	File  string `yaml:"file,omitempty"`
}
