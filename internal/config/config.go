// Package config provides YAML-based configuration loading for the livepoll
// server.
package config

import "time"

// ServerConfig contains all configuration for the livepoll SSH server.
type ServerConfig struct {
	SSH     SSHConfig     `yaml:"ssh"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
}

// SSHConfig defines the SSH listener.
type SSHConfig struct {
	Address     string        `yaml:"address"`
	HostKeyPath string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// StorageConfig defines the SQLite database location and the owner-token
// salt used for durable polls.
type StorageConfig struct {
	DBPath    string `yaml:"db_path"`
	TokenSalt string `yaml:"token_salt"`
}

// SessionConfig tunes the live coordinator.
type SessionConfig struct {
	CodeLength    int `yaml:"code_length"`
	CodeRetries   int `yaml:"code_retries"`
	EventBuffer   int `yaml:"event_buffer"`
	MessageBuffer int `yaml:"message_buffer"`
}

// DefaultServerConfig returns the hardcoded defaults, used when no config
// file is found and the embedded default fails to parse.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SSH: SSHConfig{
			Address:     ":23235",
			IdleTimeout: 30 * time.Minute,
		},
		Storage: StorageConfig{
			DBPath: "~/.livepoll/livepoll.db",
		},
		Session: SessionConfig{
			CodeLength:    6,
			CodeRetries:   64,
			EventBuffer:   64,
			MessageBuffer: 256,
		},
	}
}
