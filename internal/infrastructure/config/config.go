package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the bridge.
// All configuration is loaded from YAML and can be overridden by
// environment variables prefixed COAP2MQTT_.
type Config struct {
	Bridge  BridgeConfig  `yaml:"bridge"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	CoAP    CoAPConfig    `yaml:"coap"`
	Store   StoreConfig   `yaml:"store"`
	History HistoryConfig `yaml:"history"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
}

// BridgeConfig contains bridge identity and operational settings.
type BridgeConfig struct {
	// ID uniquely identifies this bridge process. Used in the MQTT client
	// ID and in the bridge-level health topic payload.
	ID string `yaml:"id"`

	// HealthInterval is how often to publish bridge-level health status,
	// in seconds. Default: 30.
	HealthInterval int `yaml:"health_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Root      string              `yaml:"root"`
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

// MQTTReconnectConfig contains MQTT reconnection backoff settings, in
// seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// String redacts the password when the settings are logged.
func (m MQTTAuthConfig) String() string {
	password := ""
	if m.Password != "" {
		password = "[REDACTED]"
	}
	return fmt.Sprintf("MQTTAuthConfig{Username:%q, Password:%s}", m.Username, password)
}

// CoAPConfig contains the managed device fleet and session timeouts.
type CoAPConfig struct {
	Devices []DeviceConfig `yaml:"devices"`

	// ConnectionTimeout bounds a single connect attempt, in seconds.
	// 0 means unbounded. Default: 120.
	ConnectionTimeout int `yaml:"connection_timeout"`

	// StatusTimeout bounds how long a get_status may remain in flight
	// before the watchdog declares the device offline, in seconds.
	// Default: 120.
	StatusTimeout int `yaml:"status_timeout"`
}

// DeviceConfig names one managed CoAP device host and its device model.
type DeviceConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// StoreConfig contains settings for the local SQLite last-published cache.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig contains optional InfluxDB export settings.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains settings for the optional read-only operator HTTP
// surface.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Loading order:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
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

// defaultConfig returns a Config with sensible defaults, matching the
// original implementation's documented defaults (120s timeouts, MQTT port
// 1883).
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:             "coap2mqtt-bridge",
			HealthInterval: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			Root: "coap_devices",
			QoS:  1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		CoAP: CoAPConfig{
			ConnectionTimeout: 120,
			StatusTimeout:     120,
		},
		Store: StoreConfig{
			Path: "./data/bridge.db",
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables follow the pattern: COAP2MQTT_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COAP2MQTT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("COAP2MQTT_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("COAP2MQTT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("COAP2MQTT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("COAP2MQTT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("COAP2MQTT_HISTORY_TOKEN"); v != "" {
		cfg.History.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Root == "" {
		errs = append(errs, "mqtt.root is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if len(c.CoAP.Devices) == 0 {
		errs = append(errs, "coap.devices must have at least one entry")
	}

	seen := make(map[string]bool, len(c.CoAP.Devices))
	for i, dev := range c.CoAP.Devices {
		if dev.Host == "" {
			errs = append(errs, fmt.Sprintf("coap.devices[%d].host is required", i))
			continue
		}
		if seen[dev.Host] {
			errs = append(errs, fmt.Sprintf("coap.devices[%d].host %q is duplicate", i, dev.Host))
		}
		seen[dev.Host] = true
		if dev.Model == "" {
			errs = append(errs, fmt.Sprintf("coap.devices[%d].model is required", i))
		}
	}

	if c.History.Enabled {
		if c.History.URL == "" {
			errs = append(errs, "history.url is required when history.enabled is true")
		}
		if c.History.Bucket == "" {
			errs = append(errs, "history.bucket is required when history.enabled is true")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level %q is invalid (use debug, info, warn, or error)", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetMQTTClientID returns the MQTT client ID, defaulting to the bridge ID
// if not explicitly set.
func (c *Config) GetMQTTClientID() string {
	if c.MQTT.Broker.ClientID != "" {
		return c.MQTT.Broker.ClientID
	}
	return c.Bridge.ID
}
