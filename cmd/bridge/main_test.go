package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/coap2mqtt-bridge/internal/bridge"
	"github.com/nerrad567/coap2mqtt-bridge/internal/device"
)

// stubConnector never completes a connect; it exists so buildBridges and
// run can be exercised without a real CoAP session.
type stubConnector struct{}

func (stubConnector) Connect(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
func (stubConnector) Shutdown(context.Context) error     { return nil }
func (stubConnector) GetStatus(ctx context.Context) (device.RawStatus, time.Duration, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}
func (stubConnector) SetControlValues(context.Context, device.Command) error { return nil }

func stubConnectorFactory(string, string) (bridge.Connector, error) {
	return stubConnector{}, nil
}

func TestUnconfiguredConnectorFactory(t *testing.T) {
	_, err := unconfiguredConnectorFactory("192.168.1.42", "Hu1508")
	if err == nil {
		t.Fatal("unconfiguredConnectorFactory() should always fail")
	}
}

func TestRun_InvalidConfigPath(t *testing.T) {
	originalEnv := os.Getenv(defaultConfigPathEnv)
	defer os.Setenv(defaultConfigPathEnv, originalEnv)
	os.Setenv(defaultConfigPathEnv, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx, nil, stubConnectorFactory); err == nil {
		t.Fatal("run() should fail with a nonexistent config path")
	}
}

func TestRun_InvalidStorePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
bridge:
  id: "test-bridge"
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
  root: "coap_devices"
coap:
  devices:
    - host: "192.168.1.42"
      model: "Hu1508"
store:
  path: "/nonexistent/dir/state.db"
logging:
  level: "info"
  format: "json"
  output: "stdout"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv(defaultConfigPathEnv)
	defer os.Setenv(defaultConfigPathEnv, originalEnv)
	os.Setenv(defaultConfigPathEnv, configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := run(ctx, nil, stubConnectorFactory)
	if err == nil {
		t.Fatal("run() should fail opening a store at an unwritable path")
	}
}

func TestHealthIntervalSeconds(t *testing.T) {
	if got := healthIntervalSeconds(0); got != 30*time.Second {
		t.Errorf("healthIntervalSeconds(0) = %v, want 30s default", got)
	}
	if got := healthIntervalSeconds(-5); got != 30*time.Second {
		t.Errorf("healthIntervalSeconds(-5) = %v, want 30s default", got)
	}
	if got := healthIntervalSeconds(45); got != 45*time.Second {
		t.Errorf("healthIntervalSeconds(45) = %v, want 45s", got)
	}
}

func TestSecondsToDuration(t *testing.T) {
	if got := secondsToDuration(120); got != 120*time.Second {
		t.Errorf("secondsToDuration(120) = %v, want 120s", got)
	}
}

func TestApiBroadcaster_NilServer(t *testing.T) {
	if b := apiBroadcaster(nil); b != nil {
		t.Errorf("apiBroadcaster(nil) = %v, want nil", b)
	}
}
