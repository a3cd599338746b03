package mode

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry and Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns the mode definitions and the single-active-mode
// invariant.
//
// It wraps a Repository with an in-memory cache and serializes the
// activation-critical steps (clear-all, mark-active) behind one mutex
// so two concurrent activations can never both finish with
// active=true.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Mode
	cacheMu sync.RWMutex
	logger  Logger

	// activationMu serializes ClearActive/MarkActive pairs across
	// concurrent activations. The last activation to clear wins.
	activationMu sync.Mutex
}

// NewRegistry creates a new mode registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Mode),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all modes from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	modes, err := r.repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("loading modes: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Mode, len(modes))
	for i := range modes {
		m := modes[i]
		r.cache[m.ID] = m.DeepCopy()
	}

	r.logger.Info("mode cache refreshed", "count", len(modes))
	return nil
}

// Get retrieves a mode by ID.
// Returns ErrModeNotFound if the mode does not exist.
// The returned mode is a deep copy; callers can safely modify it.
func (r *Registry) Get(_ context.Context, id string) (*Mode, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}
	return nil, ErrModeNotFound
}

// List retrieves all modes sorted by display_order then name.
// When enabledOnly is true, disabled modes are excluded.
func (r *Registry) List(_ context.Context, enabledOnly bool) ([]Mode, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	modes := make([]Mode, 0, len(r.cache))
	for _, m := range r.cache {
		if enabledOnly && !m.Enabled {
			continue
		}
		modes = append(modes, *m.DeepCopy())
	}
	sortModes(modes)
	return modes, nil
}

// Active returns the currently active mode, or nil when none is.
func (r *Registry) Active(_ context.Context) (*Mode, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for _, m := range r.cache {
		if m.Active {
			return m.DeepCopy(), nil
		}
	}
	return nil, nil
}

// sortModes sorts modes by display_order then name, matching the DB
// query ordering.
func sortModes(modes []Mode) {
	sort.Slice(modes, func(i, j int) bool {
		if modes[i].DisplayOrder != modes[j].DisplayOrder {
			return modes[i].DisplayOrder < modes[j].DisplayOrder
		}
		return modes[i].Name < modes[j].Name
	})
}

// Create validates, persists, and caches a new mode.
func (r *Registry) Create(ctx context.Context, m *Mode) error {
	if m.ID == "" {
		m.ID = GenerateID()
	}

	if err := Validate(m); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, m); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[m.ID] = m.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("mode created", "id", m.ID, "name", m.Name)
	return nil
}

// Update validates, persists, and updates the cached mode.
func (r *Registry) Update(ctx context.Context, m *Mode) error {
	if err := Validate(m); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, m); err != nil {
		return err
	}

	r.cacheMu.Lock()
	// Activation state is owned by the activation path; preserve it.
	if cached, ok := r.cache[m.ID]; ok {
		m.Active = cached.Active
		m.LastActivated = cached.LastActivated
	}
	r.cache[m.ID] = m.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("mode updated", "id", m.ID, "name", m.Name)
	return nil
}

// Delete removes a mode from persistence and cache.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("mode deleted", "id", id)
	return nil
}

// Count returns the number of cached modes.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Executions returns activation history, newest first. An empty modeID
// spans all modes; limit 0 applies the repository default.
func (r *Registry) Executions(ctx context.Context, modeID string, limit int) ([]Execution, error) {
	return r.repo.ListExecutions(ctx, modeID, limit)
}

// ClearActive clears the active flag on every mode: one SQL UPDATE
// under the activation mutex, then the cache. Idempotent.
func (r *Registry) ClearActive(ctx context.Context) error {
	r.activationMu.Lock()
	defer r.activationMu.Unlock()
	return r.clearActiveLocked(ctx)
}

func (r *Registry) clearActiveLocked(ctx context.Context) error {
	if err := r.repo.ClearActive(ctx); err != nil {
		return err
	}

	r.cacheMu.Lock()
	for _, m := range r.cache {
		m.Active = false
	}
	r.cacheMu.Unlock()
	return nil
}

// MarkActive stamps one mode active after its actions have run.
// Clears every other mode first so the invariant holds even when two
// activations interleave between their clear and mark steps.
func (r *Registry) MarkActive(ctx context.Context, id string, at time.Time) error {
	r.activationMu.Lock()
	defer r.activationMu.Unlock()

	if err := r.clearActiveLocked(ctx); err != nil {
		return err
	}
	if err := r.repo.SetActive(ctx, id, at); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if m, ok := r.cache[id]; ok {
		m.Active = true
		t := at.UTC()
		m.LastActivated = &t
	}
	r.cacheMu.Unlock()
	return nil
}
