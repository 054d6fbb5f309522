package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the server configuration.
// Search order: customPath -> ~/.livepoll/config.yaml -> ./configs/livepoll.yaml -> embedded default
func Load(customPath string) (ServerConfig, error) {
	var cfg ServerConfig

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return withDefaults(cfg), nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return withDefaults(cfg), nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/livepoll.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return withDefaults(cfg), nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultServerYAML, &cfg); err != nil {
		return DefaultServerConfig(), nil // Fallback to hardcoded if embed fails
	}
	return withDefaults(cfg), nil
}

// userConfigPath returns the path of a config file under ~/.livepoll, or ""
// if the home directory cannot be resolved.
func userConfigPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".livepoll", name)
}

// withDefaults fills any zero-valued field from the hardcoded defaults, so a
// partial config file never produces an unusable server.
func withDefaults(cfg ServerConfig) ServerConfig {
	def := DefaultServerConfig()

	if cfg.SSH.Address == "" {
		cfg.SSH.Address = def.SSH.Address
	}
	if cfg.SSH.IdleTimeout <= 0 {
		cfg.SSH.IdleTimeout = def.SSH.IdleTimeout
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = def.Storage.DBPath
	}
	if cfg.Session.CodeLength <= 0 {
		cfg.Session.CodeLength = def.Session.CodeLength
	}
	if cfg.Session.CodeRetries <= 0 {
		cfg.Session.CodeRetries = def.Session.CodeRetries
	}
	if cfg.Session.EventBuffer <= 0 {
		cfg.Session.EventBuffer = def.Session.EventBuffer
	}
	if cfg.Session.MessageBuffer <= 0 {
		cfg.Session.MessageBuffer = def.Session.MessageBuffer
	}
	return cfg
}
