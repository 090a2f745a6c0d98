package events

import "github.com/GrandEngineering/engine/pkg/types"

// Event is the mutable payload passed through a handler chain. Handlers
// observe and may mutate the concrete event; cancellation is advisory
// and consulted only where documented (StartEvent).
type Event interface {
	ID() types.Identifier
	Cancel()
	Cancelled() bool

	// Clone returns a fresh copy of the event, detached from whatever
	// dispatch call produced the receiver. The prototype registry
	// returns clones so a caller reflecting on an event's shape can't
	// mutate the registered default out from under later lookups.
	Clone() Event
}

// base is embedded by every concrete event to supply the Event
// plumbing.
type base struct {
	id        types.Identifier
	cancelled bool
}

func (b *base) ID() types.Identifier { return b.id }
func (b *base) Cancel()              { b.cancelled = true }
func (b *base) Cancelled() bool      { return b.cancelled }

// StartIdentifier through CgrpcIdentifier name the four built-in event
// channels the core dispatches (spec §4.3).
var (
	StartIdentifier     = types.NewIdentifier("core", "start_event")
	AuthIdentifier      = types.NewIdentifier("core", "auth_event")
	AdminAuthIdentifier = types.NewIdentifier("core", "admin_auth_event")
	CgrpcIdentifier     = types.NewIdentifier("core", "cgrpc_event")
)

// ModuleInfo is the slice of loaded-module metadata carried by
// StartEvent. It intentionally mirrors only the fields the event needs;
// the full metadata record lives in pkg/module.
type ModuleInfo struct {
	ID      string
	Name    string
	Author  string
	Version string
}

// StartEvent is dispatched once at boot, after all modules have loaded
// and before the server starts listening. A handler calling Cancel on
// this event is the one deliberate self-terminating path in the core
// (spec §7): the caller (cmd/dispatchd) checks Cancelled() after
// dispatch and exits if set.
type StartEvent struct {
	base
	Modules []ModuleInfo
}

// NewStartEvent builds a StartEvent carrying the given module list.
func NewStartEvent(modules []ModuleInfo) *StartEvent {
	return &StartEvent{base: base{id: StartIdentifier}, Modules: modules}
}

// Clone returns a copy of the event sharing the same Modules slice
// (read-only by convention once dispatch has run).
func (e *StartEvent) Clone() Event {
	clone := *e
	return &clone
}

// AuthEvent carries a credential string and a uid, and an Output the
// handler chain sets to authorize or deny the call.
type AuthEvent struct {
	base
	Credential string
	UID        string
	Output     bool
}

// NewAuthEvent builds an AuthEvent for the given credential and uid.
func NewAuthEvent(credential, uid string) *AuthEvent {
	return &AuthEvent{base: base{id: AuthIdentifier}, Credential: credential, UID: uid}
}

// Clone returns a copy of the event.
func (e *AuthEvent) Clone() Event {
	clone := *e
	return &clone
}

// AdminAuthEvent carries a credential string and the identifier of the
// admin operation being gated.
type AdminAuthEvent struct {
	base
	Credential string
	Target     types.Identifier
	Output     bool
}

// NewAdminAuthEvent builds an AdminAuthEvent for the given credential
// and target operation.
func NewAdminAuthEvent(credential string, target types.Identifier) *AdminAuthEvent {
	return &AdminAuthEvent{base: base{id: AdminAuthIdentifier}, Credential: credential, Target: target}
}

// Clone returns a copy of the event.
func (e *AdminAuthEvent) Clone() Event {
	clone := *e
	return &clone
}

// CgrpcEvent routes an opaque payload to a named handler and carries
// back its reply bytes in Output.
type CgrpcEvent struct {
	base
	HandlerModID string
	HandlerID    string
	Payload      []byte
	Output       []byte
}

// NewCgrpcEvent builds a CgrpcEvent targeting handlerModID/handlerID
// with the given payload.
func NewCgrpcEvent(handlerModID, handlerID string, payload []byte) *CgrpcEvent {
	return &CgrpcEvent{
		base:         base{id: CgrpcIdentifier},
		HandlerModID: handlerModID,
		HandlerID:    handlerID,
		Payload:      payload,
	}
}

// Clone returns a copy of the event. Payload and Output slices are
// shared with the original, matching the shallow-copy semantics a
// template instance only needs for shape inspection, not mutation.
func (e *CgrpcEvent) Clone() Event {
	clone := *e
	return &clone
}
