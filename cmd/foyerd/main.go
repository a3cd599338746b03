// Foyer Core - Home Automation Hub
//
// This is the main entry point for the Foyer Core application: the
// hub between the device attribute feed (MQTT), the live state cache,
// the WebSocket fan-out to wall panels, and the mode/climate command
// surface over the device gateway.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/foyerlabs/foyer-core/migrations"

	"github.com/foyerlabs/foyer-core/internal/api"
	"github.com/foyerlabs/foyer-core/internal/brain"
	"github.com/foyerlabs/foyer-core/internal/climate"
	"github.com/foyerlabs/foyer-core/internal/device"
	"github.com/foyerlabs/foyer-core/internal/feed"
	"github.com/foyerlabs/foyer-core/internal/gateway"
	"github.com/foyerlabs/foyer-core/internal/hub"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/database"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/influxdb"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/logging"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/mqtt"
	"github.com/foyerlabs/foyer-core/internal/mode"
	"github.com/foyerlabs/foyer-core/internal/state"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Foyer Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Device registry
	deviceRegistry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	deviceRegistry.SetLogger(log)
	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.Count())

	// Mode registry; seed the household defaults on first run
	modeRepo := mode.NewSQLiteRepository(db.DB)
	if seedErr := mode.SeedDefaults(ctx, modeRepo); seedErr != nil {
		return fmt.Errorf("seeding default modes: %w", seedErr)
	}
	modeRegistry := mode.NewRegistry(modeRepo)
	modeRegistry.SetLogger(log)
	if refreshErr := modeRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading mode registry: %w", refreshErr)
	}
	log.Info("mode registry initialised", "modes", modeRegistry.Count())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Live state cache and subscriber hub
	store := state.NewStore()
	subscriberHub := hub.New(cfg.WebSocket, store.Snapshot, log)

	// Attribute feed: MQTT deltas -> state store -> hub + telemetry
	attributeFeed := feed.New(mqttClient, store, cfg.Feed.TopicPrefix, byte(cfg.MQTT.QoS), log)
	attributeFeed.OnDelta(newDeltaHandler(subscriberHub, influxClient))
	if startErr := attributeFeed.Start(); startErr != nil {
		return fmt.Errorf("starting attribute feed: %w", startErr)
	}
	log.Info("attribute feed started", "prefix", cfg.Feed.TopicPrefix)

	// Device command gateway
	gatewayClient := gateway.New(cfg.Gateway, log)

	// Optional delegated executor
	var brainExec mode.BrainExecutor
	if cfg.Brain.Enabled {
		brainExec = brain.New(cfg.Brain, log)
		log.Info("brain executor enabled",
			"host", cfg.Brain.Host, "script", cfg.Brain.ExecuteScript)
	}

	// Mode engine; announce activations over MQTT and telemetry
	engine := mode.NewEngine(modeRegistry, deviceRegistry, gatewayClient, brainExec,
		cfg.Gateway.GetCommandTimeout(), log)
	topics := mqtt.Topics{}
	engine.SetOnExecution(func(exec *mode.Execution, duration time.Duration) {
		payload, marshalErr := json.Marshal(exec)
		if marshalErr == nil {
			if pubErr := mqttClient.Publish(topics.ModeActivated(exec.ModeID), payload, byte(cfg.MQTT.QoS), false); pubErr != nil {
				log.Warn("failed to announce mode activation", "error", pubErr)
			}
		}
		if influxClient != nil {
			influxClient.WriteModeActivation(exec.ModeID, exec.TotalCount, exec.FailedCount, duration.Milliseconds())
		}
	})

	// Climate service
	climateService := climate.NewService(deviceRegistry, store, gatewayClient, log)

	// HTTP API + WebSocket server
	server, err := api.New(api.Deps{
		Config:  cfg.Server,
		Auth:    cfg.Auth,
		Logger:  log,
		Devices: deviceRegistry,
		Modes:   modeRegistry,
		Engine:  engine,
		Climate: climateService,
		Gateway: gatewayClient,
		States:  store,
		Hub:     subscriberHub,
		Feed:    mqttClient,
		DB:      db,
		Influx:  influxHealth(influxClient),
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Drain HTTP first so no request observes a half-stopped hub, then
	// stop ingestion, then the fan-out. Flushing telemetry and closing
	// the database run in the defer chain.
	if closeErr := server.Close(); closeErr != nil {
		log.Error("error closing API server", "error", closeErr)
	}
	attributeFeed.Stop()
	subscriberHub.Stop()
	if influxClient != nil {
		influxClient.Flush()
	}

	log.Info("Foyer Core stopped")
	return nil
}

// newDeltaHandler routes attribute deltas out of the feed. Broker
// replays (retained flag set) only refresh the late-joiner replay
// cache; they are never re-broadcast as fresh changes. Live deltas are
// broadcast-only — the replay cache holds nothing but what the broker
// itself retains — and numeric live values feed telemetry.
func newDeltaHandler(subscriberHub *hub.Hub, influxClient *influxdb.Client) func(feed.Delta) {
	return func(d feed.Delta) {
		update := hub.StateUpdate{
			DeviceKey: d.DeviceKey,
			Attribute: d.Attribute,
			Value:     d.Value,
			Topic:     d.Topic,
		}
		if d.Retained {
			subscriberHub.RecordRetained(d.Topic, hub.Envelope{
				Update:            update,
				OriginalTimestamp: d.OriginalTimestamp,
				ReceiptTimestamp:  d.ReceivedAt,
			})
			return
		}

		subscriberHub.BroadcastState(update, d.OriginalTimestamp)

		if influxClient != nil {
			if f, ok := d.Value.Numeric(); ok {
				influxClient.WriteAttribute(d.DeviceKey, d.Attribute, f, d.OriginalTimestamp)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses FOYER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FOYER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// influxHealth adapts an optional InfluxDB client to the API's health
// interface; a typed-nil pointer must not masquerade as a live checker.
func influxHealth(c *influxdb.Client) api.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}
