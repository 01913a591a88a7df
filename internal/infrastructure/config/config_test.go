package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
bridge:
  id: "bridge-01"
mqtt:
  broker:
    host: "mqttbroker"
    port: 1883
  root: "coap_devices"
coap:
  devices:
    - host: "192.168.1.101"
      model: "philips_hu1508"
    - host: "192.168.1.102"
      model: "philips_hu1508"
  status_timeout: 120
  connection_timeout: 120
logging:
  level: "info"
  format: "json"
  output: "stdout"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "mqttbroker" {
		t.Errorf("MQTT.Broker.Host = %q, want mqttbroker", cfg.MQTT.Broker.Host)
	}
	if len(cfg.CoAP.Devices) != 2 {
		t.Fatalf("len(CoAP.Devices) = %d, want 2", len(cfg.CoAP.Devices))
	}
	if cfg.CoAP.StatusTimeout != 120 {
		t.Errorf("CoAP.StatusTimeout = %d, want 120", cfg.CoAP.StatusTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() with missing file, want error")
	}
}

func TestLoad_NoDevices(t *testing.T) {
	path := writeConfig(t, `
bridge:
  id: "bridge-01"
mqtt:
  broker:
    host: "mqttbroker"
  root: "coap_devices"
coap:
  devices: []
logging:
  level: "info"
  format: "json"
  output: "stdout"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() with no devices configured, want error")
	}
}

func TestConfig_GetMQTTClientID(t *testing.T) {
	cfg := defaultConfig()
	cfg.Bridge.ID = "bridge-01"

	if got := cfg.GetMQTTClientID(); got != "bridge-01" {
		t.Errorf("GetMQTTClientID() = %q, want bridge-01", got)
	}

	cfg.MQTT.Broker.ClientID = "explicit-id"
	if got := cfg.GetMQTTClientID(); got != "explicit-id" {
		t.Errorf("GetMQTTClientID() = %q, want explicit-id", got)
	}
}

func TestConfig_Validate_DuplicateHost(t *testing.T) {
	cfg := defaultConfig()
	cfg.CoAP.Devices = []DeviceConfig{
		{Host: "192.168.1.101", Model: "philips_hu1508"},
		{Host: "192.168.1.101", Model: "philips_hu1508"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with duplicate device host, want error")
	}
}
