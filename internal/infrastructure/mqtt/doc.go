// Package mqtt provides MQTT client connectivity for Foyer Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The hub bridge publishes every device attribute change to the broker
// under a per-hub prefix (one topic per attribute, retained). Foyer Core
// subscribes to that namespace and maintains the in-memory live state
// that the HTTP API and WebSocket subscribers read from.
//
//	Hub bridge → MQTT Broker → Foyer Core → API / WebSocket clients
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to every attribute the hub publishes
//	err = client.Subscribe(mqtt.Topics{}.DeviceAttributes(cfg.Feed.TopicPrefix), 1,
//	    func(msg mqtt.Message) error {
//	        log.Printf("Received: %s = %s", msg.Topic, msg.Payload)
//	        return nil
//	    })
package mqtt
