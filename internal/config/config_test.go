package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefault verifies the built-in defaults
func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Listen != ":8080" {
		t.Errorf("Expected listen :8080, got %s", cfg.Server.Listen)
	}
	if cfg.Replication.HealthInterval != 5*time.Second {
		t.Errorf("Expected 5s health interval, got %v", cfg.Replication.HealthInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected info level, got %s", cfg.Logging.Level)
	}
}

// TestLoad verifies YAML files layer over the defaults
func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg != Default() {
			t.Error("Expected defaults for empty path")
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  node_id: master-1
  listen: ":9090"
replication:
  master_addr: "http://localhost:9090"
  health_interval: 10s
logging:
  level: debug
  development: true
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if cfg.Server.NodeID != "master-1" {
			t.Errorf("Expected node_id master-1, got %s", cfg.Server.NodeID)
		}
		if cfg.Server.Listen != ":9090" {
			t.Errorf("Expected listen :9090, got %s", cfg.Server.Listen)
		}
		if cfg.Replication.HealthInterval != 10*time.Second {
			t.Errorf("Expected 10s health interval, got %v", cfg.Replication.HealthInterval)
		}
		if !cfg.Logging.Development {
			t.Error("Expected development logging enabled")
		}
		// Untouched fields keep their defaults
		if cfg.Server.ShutdownTimeout != 5*time.Second {
			t.Errorf("Expected default shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := Load("/does/not/exist.yaml"); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("server: ["), 0o600); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Expected error for malformed yaml")
		}
	})
}
