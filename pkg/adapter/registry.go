package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alaiia/mcp-dbquery/pkg/query"
)

// Constructor builds an adapter for one validated connection descriptor.
type Constructor func(conn query.Connection) (Adapter, error)

// Registry maps engine identifiers to adapter constructors. It is the only
// process-wide mutable structure in the subsystem: populate it during startup
// and treat it as read-only once traffic begins. All methods are safe for
// concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[query.Engine]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[query.Engine]Constructor),
	}
}

// Register adds an engine constructor. Registering nil or overwriting an
// existing engine is rejected.
func (r *Registry) Register(engine query.Engine, ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("adapter constructor for %q must not be nil", engine)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[engine]; exists {
		return fmt.Errorf("engine %q already registered", engine)
	}
	r.constructors[engine] = ctor
	return nil
}

// New creates an adapter for the descriptor's engine. An unregistered engine
// yields *query.UnsupportedEngineError naming the registered engines.
func (r *Registry) New(conn query.Connection) (Adapter, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[conn.Engine]
	r.mu.RUnlock()

	if !ok {
		return nil, &query.UnsupportedEngineError{
			Engine:    conn.Engine,
			Supported: r.SupportedEngines(),
		}
	}
	return ctor(conn)
}

// Supported reports whether the engine has a registered adapter.
func (r *Registry) Supported(engine query.Engine) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[engine]
	return ok
}

// SupportedEngines returns the registered engine identifiers, sorted.
func (r *Registry) SupportedEngines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	engines := make([]string, 0, len(r.constructors))
	for e := range r.constructors {
		engines = append(engines, e.String())
	}
	sort.Strings(engines)
	return engines
}
