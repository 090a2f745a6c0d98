package registry

import (
	"sync"

	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/rs/zerolog"
)

// Template is the capability set every registered task type exposes. A
// template is immutable once registered; concrete variants are supplied
// by modules at load time (see pkg/module).
type Template interface {
	// Verify reports whether payload is an acceptable encoding for this
	// task type.
	Verify(payload []byte) bool

	// Decode turns a verified payload into a task instance.
	Decode(payload []byte) (Instance, error)

	// Encode turns a task instance back into its wire payload. It must
	// round-trip with Decode: Encode(Decode(b)) == b for any b Verify
	// accepts.
	Encode(instance Instance) ([]byte, error)

	// RenderConfig renders an instance as human-editable config text
	// (used by the pack/unpack CLI).
	RenderConfig(instance Instance) (string, error)

	// ParseConfig parses config text back into an instance.
	ParseConfig(text string) (Instance, error)

	// Execute runs an instance to completion and returns the resulting
	// instance. The core never calls this directly; it is exposed for
	// worker processes and tests.
	Execute(instance Instance) (Instance, error)
}

// Instance is an opaque task value produced and consumed by a Template.
// The registry and dispatch layer never inspect it directly.
type Instance interface{}

// Registry holds one Template per Identifier. Registration is
// idempotent on identical re-registration and last-write-wins on
// conflict within a boot.
type Registry struct {
	mu        sync.RWMutex
	templates map[types.Identifier]Template
	logger    zerolog.Logger
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		templates: make(map[types.Identifier]Template),
		logger:    log.WithComponent("registry"),
	}
}

// Register installs template under id. Registering the same id again
// with an identical template is a no-op; registering a different
// template for an already-used id overrides it (last write wins),
// logged at debug as spec'd for module load order.
func (r *Registry) Register(id types.Identifier, tmpl Template) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.templates[id]; ok {
		if existing == tmpl {
			return
		}
		r.logger.Debug().Str("identifier", id.String()).Msg("overriding task template")
	}
	r.templates[id] = tmpl
}

// Get returns the template for id, if any. The returned handle is safe
// to use without further locking: templates are immutable once
// registered.
func (r *Registry) Get(id types.Identifier) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[id]
	return tmpl, ok
}

// List returns all registered identifiers. Order is unspecified but
// stable within a single call.
func (r *Registry) List() []types.Identifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.Identifier, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	return ids
}
