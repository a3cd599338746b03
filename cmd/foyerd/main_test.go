package main

import (
	"testing"
	"time"

	"github.com/foyerlabs/foyer-core/internal/feed"
	"github.com/foyerlabs/foyer-core/internal/hub"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
	"github.com/foyerlabs/foyer-core/internal/state"
)

func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()

	store := state.NewStore()
	h := hub.New(config.WebSocketConfig{
		Path:           "/ws",
		MaxMessageSize: 524288,
		PingInterval:   54,
		PongTimeout:    60,
	}, store.Snapshot, nil)
	t.Cleanup(h.Stop)
	return h
}

func testDelta(topic string, retained bool) feed.Delta {
	return feed.Delta{
		DeviceKey:         "13",
		Attribute:         "temperature",
		Value:             state.FloatValue(21.5),
		Topic:             topic,
		Retained:          retained,
		OriginalTimestamp: time.Now().UTC(),
		ReceivedAt:        time.Now().UTC(),
	}
}

// Broker replays populate the replay cache for late joiners.
func TestDeltaHandler_RetainedPopulatesReplayCache(t *testing.T) {
	h := newTestHub(t)
	handle := newDeltaHandler(h, nil)

	handle(testDelta("hubitat/hub/plancher-cuisine-13/temperature", true))

	if got := h.RetainedCount(); got != 1 {
		t.Errorf("RetainedCount() = %d, want 1 after retained delta", got)
	}
}

// Live deltas are broadcast-only: a late joiner must not be replayed
// topics that the broker never retained.
func TestDeltaHandler_LiveDeltaNotCachedForReplay(t *testing.T) {
	h := newTestHub(t)
	handle := newDeltaHandler(h, nil)

	handle(testDelta("hubitat/hub/plancher-cuisine-13/temperature", false))
	handle(testDelta("hubitat/hub/salon-7/switch", false))

	if got := h.RetainedCount(); got != 0 {
		t.Errorf("RetainedCount() = %d, want 0 after live-only deltas", got)
	}
}

// A live update to a topic the broker retained earlier does not grow
// the cache; only retained replays write to it.
func TestDeltaHandler_MixedTraffic(t *testing.T) {
	h := newTestHub(t)
	handle := newDeltaHandler(h, nil)

	handle(testDelta("hubitat/hub/plancher-cuisine-13/temperature", true))
	handle(testDelta("hubitat/hub/plancher-cuisine-13/temperature", false))
	handle(testDelta("hubitat/hub/salon-7/switch", false))

	if got := h.RetainedCount(); got != 1 {
		t.Errorf("RetainedCount() = %d, want 1 (retained topic only)", got)
	}
}
