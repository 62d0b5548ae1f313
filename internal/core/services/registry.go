package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
)

// Ensure EngineRegistry implements the interface.
var _ driven.EngineRegistry = (*EngineRegistry)(nil)

// EngineRegistry holds the memories and glossaries open in the process.
// An engine is owned by the registry from Register until Close.
type EngineRegistry struct {
	mu      sync.RWMutex
	engines map[string]driven.TranslationEngine
}

// NewEngineRegistry creates an empty registry.
func NewEngineRegistry() *EngineRegistry {
	return &EngineRegistry{
		engines: make(map[string]driven.TranslationEngine),
	}
}

// Register adds an open engine under id.
func (r *EngineRegistry) Register(id string, engine driven.TranslationEngine) error {
	if id == "" || engine == nil {
		return fmt.Errorf("register engine: %w", domain.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[id]; exists {
		return fmt.Errorf("register engine %q: already open: %w", id, domain.ErrInvalidInput)
	}
	r.engines[id] = engine
	return nil
}

// Get returns the engine registered under id.
func (r *EngineRegistry) Get(id string) (driven.TranslationEngine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.engines[id]
	if !ok {
		return nil, fmt.Errorf("engine %q: %w", id, domain.ErrEngineUnavailable)
	}
	return engine, nil
}

// IDs returns the registered ids in order.
func (r *EngineRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes and removes the engine registered under id.
func (r *EngineRegistry) Close(id string) error {
	r.mu.Lock()
	engine, ok := r.engines[id]
	delete(r.engines, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("engine %q: %w", id, domain.ErrNotFound)
	}
	if err := engine.Close(); err != nil {
		return fmt.Errorf("close engine %q: %w", id, err)
	}
	return nil
}

// CloseAll closes every engine, returning the joined close errors.
func (r *EngineRegistry) CloseAll() error {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[string]driven.TranslationEngine)
	r.mu.Unlock()

	var errs []error
	for id, engine := range engines {
		if err := engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine %q: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
