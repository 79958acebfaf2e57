// Package config loads and validates the veritract service configuration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the verification service configuration
type Config struct {
	// Origin identifies the attesting party in receipts and attestations
	Origin string `yaml:"origin"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Storage configuration for comparison artifacts
	Storage StorageConfig `yaml:"storage"`

	// Service signing keys
	Keys KeysConfig `yaml:"keys"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server"`
}

// DatabaseConfig represents SQLite configuration
type DatabaseConfig struct {
	Path      string `yaml:"path"`
	EnableWAL bool   `yaml:"enable_wal"`
}

// StorageConfig represents artifact storage configuration
type StorageConfig struct {
	Type string `yaml:"type"` // "local" or "memory"
	Path string `yaml:"path"` // For local storage
}

// KeysConfig represents signing key configuration
type KeysConfig struct {
	Private string `yaml:"private"` // Path to private key (PEM)
	Public  string `yaml:"public"`  // Path to public key (JWK)
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host string     `yaml:"host"`
	Port int        `yaml:"port"`
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Origin == "" {
		return fmt.Errorf("origin is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	switch c.Storage.Type {
	case "":
		return fmt.Errorf("storage type is required")
	case "local":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for local storage")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Keys.Private == "" {
		return fmt.Errorf("private key path is required")
	}

	if c.Keys.Public == "" {
		return fmt.Errorf("public key path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Origin: "veritract-local",
		Database: DatabaseConfig{
			Path:      "veritract.db",
			EnableWAL: true,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "./storage",
		},
		Keys: KeysConfig{
			Private: "service-key.pem",
			Public:  "service-key.jwk",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
			},
		},
	}
}

// Save saves configuration to a YAML file
func Save(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
