package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Foyer Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Feed      FeedConfig      `yaml:"feed"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Brain     BrainConfig     `yaml:"brain"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read    int `yaml:"read"`
	Write   int `yaml:"write"`
	Idle    int `yaml:"idle"`
	Request int `yaml:"request"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// AuthConfig contains the bearer-token verification settings.
//
// Foyer does not mint tokens itself; it verifies HS256 JWTs issued by an
// external identity service against a shared secret.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
// Setting InitialDelay equal to MaxDelay gives a fixed backoff.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// FeedConfig contains the device attribute feed settings.
type FeedConfig struct {
	// TopicPrefix is the namespace the hub publishes device attributes under.
	// The feed subscribes to "<prefix>/#".
	TopicPrefix string `yaml:"topic_prefix"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for attribute telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// GatewayConfig contains the device command gateway (Maker API) settings.
type GatewayConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`

	// CommandTimeout is the per-command timeout in seconds.
	CommandTimeout int `yaml:"command_timeout"`
}

// BrainConfig contains the optional delegated automation executor settings.
// The brain is reached over SSH and executes a whole mode in one call.
type BrainConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	KeyFile       string `yaml:"key_file"`
	ExecuteScript string `yaml:"execute_script"`

	// Timeout is the per-execution timeout in seconds (dial + run).
	Timeout int `yaml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FOYER_SECTION_KEY
// For example: FOYER_DATABASE_PATH, FOYER_AUTH_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: ServerTimeoutConfig{
				Read:    30,
				Write:   60,
				Idle:    60,
				Request: 60,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "foyer-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 5,
				MaxDelay:     5,
				MaxAttempts:  0,
			},
		},
		Feed: FeedConfig{
			TopicPrefix: "hubitat/genius-hub-000d",
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 524288,
			PingInterval:   54,
			PongTimeout:    60,
		},
		Database: DatabaseConfig{
			Path:        "./data/foyer.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Gateway: GatewayConfig{
			CommandTimeout: 30,
		},
		Brain: BrainConfig{
			Port:          22,
			ExecuteScript: "/opt/brain/execute_automation.py",
			Timeout:       15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FOYER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("FOYER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	// Auth secret (always override in production)
	if v := os.Getenv("FOYER_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}

	// Database
	if v := os.Getenv("FOYER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("FOYER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FOYER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FOYER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Feed
	if v := os.Getenv("FOYER_FEED_TOPIC_PREFIX"); v != "" {
		cfg.Feed.TopicPrefix = v
	}

	// InfluxDB
	if v := os.Getenv("FOYER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Gateway
	if v := os.Getenv("FOYER_GATEWAY_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("FOYER_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Token = v
	}
}

// minAuthSecretLength is the minimum accepted length for the JWT shared secret.
// Short secrets make HS256 tokens forgeable, which gives an attacker control
// over physical devices.
const minAuthSecretLength = 32

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required (set FOYER_AUTH_SECRET environment variable)")
	} else if len(c.Auth.Secret) < minAuthSecretLength {
		errs = append(errs, "auth.secret must be at least 32 characters")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Feed.TopicPrefix == "" {
		errs = append(errs, "feed.topic_prefix is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Gateway.BaseURL == "" {
		errs = append(errs, "gateway.base_url is required")
	}

	if c.Brain.Enabled {
		if c.Brain.Host == "" {
			errs = append(errs, "brain.host is required when brain is enabled")
		}
		if c.Brain.User == "" {
			errs = append(errs, "brain.user is required when brain is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// GetCommandTimeout returns the gateway per-command timeout as a Duration.
func (c *GatewayConfig) GetCommandTimeout() time.Duration {
	if c.CommandTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CommandTimeout) * time.Second
}

// GetTimeout returns the brain execution timeout as a Duration.
func (c *BrainConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}
