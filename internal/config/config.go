package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration shared by both daemons
type ServerConfig struct {
	NodeID            string        `yaml:"node_id"`
	Listen            string        `yaml:"listen"`
	PublicAddr        string        `yaml:"public_addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// ReplicationConfig holds the settings for the replication link between
// master and replicas
type ReplicationConfig struct {
	MasterAddr            string        `yaml:"master_addr"`
	PushTimeout           time.Duration `yaml:"push_timeout"`
	HealthInterval        time.Duration `yaml:"health_interval"`
	RegisterRetries       int           `yaml:"register_retries"`
	RegisterRetryInterval time.Duration `yaml:"register_retry_interval"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the complete configuration for a daemon
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Replication ReplicationConfig `yaml:"replication"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:            ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Replication: ReplicationConfig{
			PushTimeout:           4 * time.Second,
			HealthInterval:        5 * time.Second,
			RegisterRetries:       5,
			RegisterRetryInterval: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML configuration file over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
