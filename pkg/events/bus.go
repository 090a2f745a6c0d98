package events

import (
	"sync"

	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/rs/zerolog"
)

// Handler observes (and may mutate) an event dispatched under its
// identifier.
type Handler interface {
	Handle(event Event)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(Event)

// Handle implements Handler.
func (f HandlerFunc) Handle(event Event) { f(event) }

// Bus is the event bus (C3): an identifier-keyed registry of ordered
// handler chains, plus a separate prototype registry of default event
// instances kept only for reflection/extension (spec §4.3) — a module
// can look up "what does core:start_event look like" without having
// dispatched one yet. The two registries are deliberately independent:
// registering a prototype does not install a handler and vice versa.
// Registration appends; there is no unregister. Dispatch itself is not
// separately locked — callers dispatch under the engine's single
// writer lock (spec §4.3) — but RegisterHandler/RegisterPrototype are
// safe to call concurrently with themselves for tests and out-of-order
// module loading.
type Bus struct {
	mu         sync.Mutex
	handlers   map[types.Identifier][]Handler
	prototypes map[types.Identifier]Event
	logger     zerolog.Logger
}

// New creates a Bus with the built-in auth_event and admin_auth_event
// handlers installed (spec §4.3's "built-in handlers installed at
// boot"), and a default prototype registered for each of the four
// built-in event channels.
func New(adminToken *string) *Bus {
	b := &Bus{
		handlers:   make(map[types.Identifier][]Handler),
		prototypes: make(map[types.Identifier]Event),
		logger:     log.WithComponent("events"),
	}
	b.RegisterHandler(AuthIdentifier, HandlerFunc(handleAuthEvent))
	b.RegisterHandler(AdminAuthIdentifier, HandlerFunc(adminAuthHandler(adminToken)))

	b.RegisterPrototype(NewStartEvent(nil))
	b.RegisterPrototype(NewAuthEvent("", ""))
	b.RegisterPrototype(NewAdminAuthEvent("", types.Identifier{}))
	b.RegisterPrototype(NewCgrpcEvent("", "", nil))
	return b
}

// RegisterPrototype installs event as the default instance for its own
// identifier, overwriting any prior prototype for that identifier.
func (b *Bus) RegisterPrototype(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prototypes[event.ID()] = event
	b.logger.Debug().Str("identifier", event.ID().String()).Msg("registered event prototype")
}

// Prototype returns a clone of the default instance registered for id,
// if any. The clone is safe for the caller to mutate or dispatch.
func (b *Bus) Prototype(id types.Identifier) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	proto, ok := b.prototypes[id]
	if !ok {
		return nil, false
	}
	return proto.Clone(), true
}

// RegisterHandler appends handler to id's chain.
func (b *Bus) RegisterHandler(id types.Identifier, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[id] = append(b.handlers[id], handler)
	b.logger.Debug().Str("identifier", id.String()).Msg("registered event handler")
}

// Dispatch runs event through id's handler chain in registration
// order. Handlers may mutate event; there is no return value because
// every typed event carries its own output field.
func (b *Bus) Dispatch(id types.Identifier, event Event) {
	b.mu.Lock()
	handlers := b.handlers[id]
	b.mu.Unlock()

	if len(handlers) == 0 {
		b.logger.Debug().Str("identifier", id.String()).Msg("no handlers registered for event")
		return
	}

	b.logger.Debug().Str("identifier", id.String()).Msg("dispatching event")
	for _, h := range handlers {
		h.Handle(event)
	}
}

// handleAuthEvent is the built-in auth_event handler: authentication is
// delegation-ready by default. It is installed first, so a stricter
// handler a module registers runs after it and can set Output back to
// false.
func handleAuthEvent(event Event) {
	if e, ok := event.(*AuthEvent); ok {
		e.Output = true
	}
}

// adminAuthHandler returns the built-in admin_auth_event handler: when
// adminToken is set, it requires an exact match; otherwise it permits
// everything.
func adminAuthHandler(adminToken *string) func(Event) {
	return func(event Event) {
		e, ok := event.(*AdminAuthEvent)
		if !ok {
			return
		}
		if adminToken == nil {
			e.Output = true
			return
		}
		e.Output = e.Credential == *adminToken
	}
}
