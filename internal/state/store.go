package state

import "sync"

// Store is the authoritative in-memory cache of live device state.
//
// It maps deviceKey -> attribute -> Value. Deltas are applied one at a
// time by the feed; last write wins per attribute; no history is kept
// beyond the current value.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The feed's delivery
//     goroutines write while request handlers read concurrently.
type Store struct {
	mu      sync.RWMutex
	devices map[string]map[string]Value
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		devices: make(map[string]map[string]Value),
	}
}

// ApplyDelta records one attribute change for a device.
//
// The device entry is created on first write. O(1) expected.
func (s *Store) ApplyDelta(deviceKey, attribute string, value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs, ok := s.devices[deviceKey]
	if !ok {
		attrs = make(map[string]Value)
		s.devices[deviceKey] = attrs
	}
	attrs[attribute] = value
}

// Get returns a copy of one device's attributes.
//
// ok is false when the feed has never reported the device. The returned
// map is independent of the store; callers may mutate it freely.
func (s *Store) Get(deviceKey string) (map[string]Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs, ok := s.devices[deviceKey]
	if !ok {
		return nil, false
	}

	out := make(map[string]Value, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out, true
}

// Attribute returns one attribute of one device.
//
// ok is false when either the device or the attribute is unknown.
func (s *Store) Attribute(deviceKey, attribute string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs, ok := s.devices[deviceKey]
	if !ok {
		return Value{}, false
	}
	v, ok := attrs[attribute]
	return v, ok
}

// Snapshot returns a deep, independent copy of the entire cache.
//
// Mutating the snapshot never affects the store, and later deltas never
// affect a snapshot already taken.
func (s *Store) Snapshot() map[string]map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]Value, len(s.devices))
	for key, attrs := range s.devices {
		copied := make(map[string]Value, len(attrs))
		for k, v := range attrs {
			copied[k] = v
		}
		out[key] = copied
	}
	return out
}

// DeviceCount returns the number of devices the feed has reported.
func (s *Store) DeviceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}
