// Command bridge is the composition root for the CoAP-to-MQTT bridge: it
// loads configuration, wires the infrastructure layer (MQTT, the durable
// last-published cache, optional InfluxDB export, the optional operator
// HTTP API), constructs one DeviceBridge per configured device, and runs
// the whole fleet under a Bridge Group until an interrupt signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/coap2mqtt-bridge/internal/api"
	"github.com/nerrad567/coap2mqtt-bridge/internal/bridge"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/config"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/history"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/store"
	_ "github.com/nerrad567/coap2mqtt-bridge/migrations" // registers the embedded schema migrations with store
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

// defaultConfigPathEnv names the environment variable that selects the
// configuration file; defaultConfigPath is used when it is unset. Logging
// settings come from that file's logging block, not from a separate file.
const (
	defaultConfigPathEnv = "COAP2MQTT_CONFIG_PATH"
	defaultConfigPath    = "./config.yaml"
)

// ConnectorFactory builds the CoAP session for one configured device. The
// CoAP/DTLS-PSK wire protocol itself is an explicit Non-goal (spec.md §1);
// a real deployment supplies a factory backed by a concrete CoAP client
// library, injected here rather than constructed by this package.
type ConnectorFactory func(host, model string) (bridge.Connector, error)

func main() {
	logger := logging.Default()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, unconfiguredConnectorFactory); err != nil {
		logger.Error("bridge exited with error", "error", err)
		os.Exit(1)
	}
}

// unconfiguredConnectorFactory is the default factory used when no CoAP
// client library has been linked in. It fails fast and explains why,
// rather than silently running a fleet of bridges that can never connect.
func unconfiguredConnectorFactory(host, model string) (bridge.Connector, error) {
	return nil, fmt.Errorf("bridge: no CoAP connector factory configured for %s (%s); "+
		"link a concrete CoAP client and pass its factory to run()", host, model)
}

// run loads configuration and drives the bridge fleet until ctx is
// cancelled. Split from main for testability and so main stays a thin
// signal/exit-code shim.
func run(ctx context.Context, logger *logging.Logger, connectorFactory ConnectorFactory) error {
	cfgPath := os.Getenv(defaultConfigPathEnv)
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = logging.New(cfg.Logging, Version)
	logger.Info("bridge starting", "version", Version, "config_path", cfgPath, "devices", len(cfg.CoAP.Devices))

	db, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer db.Close()
	cache := store.NewPublishedCache(db)

	mqttCfg := cfg.MQTT
	mqttCfg.Broker.ClientID = cfg.GetMQTTClientID()
	mqttClient, err := mqtt.Connect(mqttCfg)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	mqttClient.SetLogger(logger)
	defer mqttClient.Close()

	historyClient := openHistory(ctx, cfg.History, logger)
	if historyClient != nil {
		defer historyClient.Close()
	}

	bridges, err := buildBridges(cfg, logger, connectorFactory)
	if err != nil {
		return err
	}

	group := bridge.NewGroup(bridges, logger)

	apiServer, err := buildAPIServer(cfg.API, logger, group)
	if err != nil {
		return fmt.Errorf("building api server: %w", err)
	}

	// historyClient is a concrete *history.Client that may be nil; assigning
	// it directly to the HistorySink interface field would wrap a nil
	// pointer in a non-nil interface value, so the nil check happens here
	// instead.
	var historySink bridge.HistorySink
	if historyClient != nil {
		historySink = historyClient
	}

	conn := bridge.NewConnection(bridge.ConnectionConfig{
		Client:      mqttClient,
		Root:        cfg.MQTT.Root,
		Cache:       cache,
		Router:      group,
		Logger:      logger,
		QoS:         byte(cfg.MQTT.QoS),
		Broadcaster: apiBroadcaster(apiServer),
		History:     historySink,
	})

	health := bridge.NewHealthReporter(bridge.HealthReporterConfig{
		Topic:     mqtt.BridgeStatusTopic,
		Version:   Version,
		Interval:  healthIntervalSeconds(cfg.Bridge.HealthInterval),
		Publisher: mqttClient,
		Group:     group,
		Logger:    logger,
	})
	if err := health.PublishStarting(); err != nil {
		logger.Warn("failed to publish starting health status", "error", err)
	}
	health.Start(ctx)
	defer health.Stop()

	if apiServer != nil {
		if err := apiServer.Start(ctx); err != nil {
			logger.Warn("failed to start api server", "error", err)
		}
		defer apiServer.Close()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return conn.Observe(egCtx) })
	eg.Go(func() error { return group.Observe(egCtx, conn) })

	err = eg.Wait()
	logger.Info("bridge stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStore(cfg config.StoreConfig) (*store.DB, error) {
	db, err := store.Open(store.Config{
		Path:        cfg.Path,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("opening last-published store: %w", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func openHistory(ctx context.Context, cfg config.HistoryConfig, logger *logging.Logger) *history.Client {
	if !cfg.Enabled {
		return nil
	}
	client, err := history.Connect(ctx, cfg)
	if err != nil {
		logger.Warn("history export disabled: connect failed", "error", err)
		return nil
	}
	client.SetOnError(func(err error) {
		logger.Warn("history write failed", "error", err)
	})
	return client
}

func buildBridges(cfg *config.Config, logger *logging.Logger, connectorFactory ConnectorFactory) ([]*bridge.DeviceBridge, error) {
	bridges := make([]*bridge.DeviceBridge, 0, len(cfg.CoAP.Devices))
	for _, dev := range cfg.CoAP.Devices {
		connector, err := connectorFactory(dev.Host, dev.Model)
		if err != nil {
			return nil, fmt.Errorf("building connector for %s: %w", dev.Host, err)
		}
		b, err := bridge.New(bridge.Options{
			Host:              dev.Host,
			Model:             dev.Model,
			Connector:         connector,
			Logger:            logger,
			ConnectionTimeout: secondsToDuration(cfg.CoAP.ConnectionTimeout),
			StatusTimeout:     secondsToDuration(cfg.CoAP.StatusTimeout),
		})
		if err != nil {
			return nil, fmt.Errorf("building bridge for %s: %w", dev.Host, err)
		}
		bridges = append(bridges, b)
	}
	return bridges, nil
}

func buildAPIServer(cfg config.APIConfig, logger *logging.Logger, group *bridge.Group) (*api.Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return api.New(api.Deps{
		Config:  cfg,
		Logger:  logger,
		Group:   group,
		Version: Version,
	})
}

// apiBroadcaster returns srv's WebSocket hub as a bridge.Broadcaster, or
// nil if the API surface is disabled.
func apiBroadcaster(srv *api.Server) bridge.Broadcaster {
	if srv == nil {
		return nil
	}
	return srv.Hub()
}

// secondsToDuration converts a config value of whole seconds (0 meaning
// "unbounded" for connection_timeout) into a time.Duration.
func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// healthIntervalSeconds applies the documented 30s default when a bridge
// hasn't configured bridge.health_interval.
func healthIntervalSeconds(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
