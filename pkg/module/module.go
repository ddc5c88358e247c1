// Package module defines the plugin contract scan modules implement and
// the registry the orchestrator resolves them from.
//
// A module never writes to the store. It receives a scan plus a shared,
// read-only run context and produces a lazy, finite sequence of events on
// a channel; the orchestrator drains the channel and persists each event.
package module

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/scanforge/scanforge/pkg/capability"
	"github.com/scanforge/scanforge/pkg/config"
	"github.com/scanforge/scanforge/pkg/event"
	"github.com/scanforge/scanforge/pkg/model"
	"github.com/scanforge/scanforge/pkg/storage"
	"github.com/scanforge/scanforge/pkg/store"
)

// RunContext is the shared, read-only execution context passed to every
// module run. It is safe to share across concurrently running modules:
// the store is the only mutable resource behind it, and the store is
// safe for concurrent use.
type RunContext struct {
	// Settings is the engine configuration snapshot.
	Settings config.Settings

	// Store gives modules read access to previously merged entities
	// (e.g. endpoints discovered earlier in the same scan). Modules must
	// not write through it; writes belong to the orchestrator.
	Store store.Store

	// Storage is the artifact backend, exposed for modules that need to
	// know where artifacts land. Writes go through the orchestrator's
	// fetch merge, never directly from a module.
	Storage storage.Backend

	// StorageModeDefault applies to fetches that don't override it.
	StorageModeDefault model.StorageMode

	// Limiter is the shared network budget. Modules performing (real or
	// simulated) network calls must Wait on it between requests.
	Limiter *rate.Limiter

	// Logger is the structured logger. Never nil.
	Logger *slog.Logger
}

// Module is the contract every scan module implements.
type Module interface {
	// Name is the unique registry key.
	Name() string

	// Description is a one-line summary for operator listings.
	Description() string

	// Version identifies the module implementation.
	Version() string

	// RequiredCapabilities declares what the module needs granted before
	// it may produce a single event.
	RequiredCapabilities() []capability.Capability

	// Run produces the module's event sequence for the given scan. The
	// returned channel is lazy, finite and non-restartable: the module
	// closes it when done and stops early when ctx is cancelled. The
	// sequence may be empty.
	Run(ctx context.Context, scan *model.Scan, rc *RunContext) (<-chan event.Event, error)
}

// Registry maps module names to instances. Construct one at startup and
// hand it to the engine; there is no process-wide registry.
type Registry struct {
	modules map[string]Module
	order   []string // preserves registration order for deterministic execution
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. It rejects duplicate names and modules that
// declare unrecognized capability tokens, so bad declarations surface at
// startup rather than mid-scan.
func (r *Registry) Register(m Module) error {
	name := m.Name()
	if name == "" {
		return fmt.Errorf("module: cannot register unnamed module")
	}
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module: %q already registered", name)
	}
	for _, c := range m.RequiredCapabilities() {
		if !c.IsValid() {
			return fmt.Errorf("module: %q declares unknown capability %q", name, c)
		}
	}
	r.modules[name] = m
	r.order = append(r.order, name)
	return nil
}

// Get returns the module for the given name, or nil if not registered.
func (r *Registry) Get(name string) Module {
	return r.modules[name]
}

// Has reports whether a module with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// Names returns all registered module names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered modules.
func (r *Registry) Count() int {
	return len(r.modules)
}

// FilterByCapabilities returns the names of modules whose declared
// requirements are a subset of the granted set, in registration order.
func (r *Registry) FilterByCapabilities(granted capability.Set) []string {
	var out []string
	for _, name := range r.order {
		m := r.modules[name]
		if capability.Ensure(m.RequiredCapabilities(), granted) == nil {
			out = append(out, name)
		}
	}
	return out
}
