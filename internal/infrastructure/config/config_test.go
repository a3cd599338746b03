package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "0.0.0.0"
  port: 8080
auth:
  secret: "test-secret-key-at-least-32-chars!"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
feed:
  topic_prefix: "hubitat/test-hub"
gateway:
  base_url: "http://hub.local/apps/api/7"
  token: "abc"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Feed.TopicPrefix != "hubitat/test-hub" {
		t.Errorf("Feed.TopicPrefix = %q, want %q", cfg.Feed.TopicPrefix, "hubitat/test-hub")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Gateway.BaseURL != "http://hub.local/apps/api/7" {
		t.Errorf("Gateway.BaseURL = %q, want %q", cfg.Gateway.BaseURL, "http://hub.local/apps/api/7")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
auth:
  secret: "test-secret-key-at-least-32-chars!"
gateway:
  base_url: "http://hub.local/apps/api/7"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Feed.TopicPrefix != "hubitat/genius-hub-000d" {
		t.Errorf("Feed.TopicPrefix default = %q, want %q", cfg.Feed.TopicPrefix, "hubitat/genius-hub-000d")
	}
	if cfg.MQTT.Reconnect.InitialDelay != 5 {
		t.Errorf("MQTT.Reconnect.InitialDelay default = %d, want 5", cfg.MQTT.Reconnect.InitialDelay)
	}
	if cfg.Gateway.GetCommandTimeout().Seconds() != 30 {
		t.Errorf("Gateway.GetCommandTimeout() = %v, want 30s", cfg.Gateway.GetCommandTimeout())
	}
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("WebSocket.Path default = %q, want %q", cfg.WebSocket.Path, "/ws")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
auth:
  secret: "test-secret-key-at-least-32-chars!"
gateway:
  base_url: "http://hub.local/apps/api/7"
mqtt:
  broker:
    host: "from-file"
`
	t.Setenv("FOYER_MQTT_HOST", "from-env")
	t.Setenv("FOYER_FEED_TOPIC_PREFIX", "hubitat/other-hub")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "from-env" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "from-env")
	}
	if cfg.Feed.TopicPrefix != "hubitat/other-hub" {
		t.Errorf("Feed.TopicPrefix = %q, want env override %q", cfg.Feed.TopicPrefix, "hubitat/other-hub")
	}
}

func TestConfig_Validate(t *testing.T) {
	validSecret := "test-secret-key-at-least-32-chars!"

	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Auth.Secret = validSecret
		cfg.Gateway.BaseURL = "http://hub.local/apps/api/7"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing auth secret",
			mutate:  func(c *Config) { c.Auth.Secret = "" },
			wantErr: true,
		},
		{
			name:    "short auth secret",
			mutate:  func(c *Config) { c.Auth.Secret = "too-short" },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "missing topic prefix",
			mutate:  func(c *Config) { c.Feed.TopicPrefix = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing gateway base url",
			mutate:  func(c *Config) { c.Gateway.BaseURL = "" },
			wantErr: true,
		},
		{
			name: "brain enabled without host",
			mutate: func(c *Config) {
				c.Brain.Enabled = true
				c.Brain.Host = ""
				c.Brain.User = "foyer"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
