package mqtt

import "fmt"

// Topic prefixes for the service's own MQTT traffic.
//
// Device attribute topics are not built here: their prefix belongs to the
// external hub and comes from feed.topic_prefix in config.yaml.
const (
	// TopicPrefixCore is the base for topics the service publishes itself.
	TopicPrefixCore = "foyer/core"
)

// Topics provides builders for the service's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// SystemStatus returns the service status topic, used for the online/offline
// LWT messages.
//
// Example: foyer/core/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixCore)
}

// ModeActivated returns the topic for mode activation events.
//
// Example: foyer/core/mode/mode_nuit/activated
func (Topics) ModeActivated(modeID string) string {
	return fmt.Sprintf("%s/mode/%s/activated", TopicPrefixCore, modeID)
}

// DeviceAttributes returns the wildcard pattern covering every attribute
// the hub publishes under the configured prefix.
//
// Example: hubitat/genius-hub-000d/#
func (Topics) DeviceAttributes(prefix string) string {
	return fmt.Sprintf("%s/#", prefix)
}
