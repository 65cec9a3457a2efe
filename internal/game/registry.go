package game

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// EffectFactory builds a status effect. A zero duration selects the effect's
// default duration.
type EffectFactory func(duration time.Duration) StatusEffect

// Registry maps string keys to role, mode and effect factories.
type Registry struct {
	mu      sync.RWMutex
	roles   map[string]RoleFactory
	modes   map[string]ModeFactory
	effects map[string]EffectFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		roles:   make(map[string]RoleFactory),
		modes:   make(map[string]ModeFactory),
		effects: make(map[string]EffectFactory),
	}
}

// RegisterRole adds or replaces a role factory.
func (r *Registry) RegisterRole(name string, factory RoleFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[name] = factory
}

// RegisterMode adds or replaces a mode factory.
func (r *Registry) RegisterMode(name string, factory ModeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[name] = factory
}

// RegisterEffect adds or replaces a status effect factory.
func (r *Registry) RegisterEffect(name string, factory EffectFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects[name] = factory
}

// NewRole instantiates a registered role.
func (r *Registry) NewRole(name string, w World) (Role, error) {
	r.mu.RLock()
	factory, ok := r.roles[name]
	r.mu.RUnlock()
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return factory(w), nil
}

// NewMode instantiates a registered mode.
func (r *Registry) NewMode(cfg ModeConfig) (Mode, error) {
	r.mu.RLock()
	factory, ok := r.modes[cfg.Mode]
	r.mu.RUnlock()
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
	return factory(cfg)
}

// NewEffect instantiates a registered status effect.
func (r *Registry) NewEffect(name string, duration time.Duration) (StatusEffect, error) {
	r.mu.RLock()
	factory, ok := r.effects[name]
	r.mu.RUnlock()
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return factory(duration), nil
}

// HasRole reports whether a role key is registered.
func (r *Registry) HasRole(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roles[name]
	return ok
}

func (r *Registry) RoleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.roles)
}

func (r *Registry) ModeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.modes)
}

func (r *Registry) EffectNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.effects)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
