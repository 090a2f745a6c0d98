package events

import (
	"testing"

	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestBuiltinAuthEventAlwaysTrue(t *testing.T) {
	bus := New(nil)
	event := NewAuthEvent("anything", "w1")
	bus.Dispatch(AuthIdentifier, event)
	assert.True(t, event.Output)
}

func TestBuiltinAdminAuthNoTokenPermitsAll(t *testing.T) {
	bus := New(nil)
	event := NewAdminAuthEvent("", AdminAuthIdentifier)
	bus.Dispatch(AdminAuthIdentifier, event)
	assert.True(t, event.Output)
}

func TestBuiltinAdminAuthRequiresExactToken(t *testing.T) {
	token := "secret"
	bus := New(&token)

	wrong := NewAdminAuthEvent("wrong", AdminAuthIdentifier)
	bus.Dispatch(AdminAuthIdentifier, wrong)
	assert.False(t, wrong.Output)

	right := NewAdminAuthEvent("secret", AdminAuthIdentifier)
	bus.Dispatch(AdminAuthIdentifier, right)
	assert.True(t, right.Output)
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	bus := New(nil)
	var order []int

	bus.RegisterHandler(StartIdentifier, HandlerFunc(func(Event) { order = append(order, 1) }))
	bus.RegisterHandler(StartIdentifier, HandlerFunc(func(Event) { order = append(order, 2) }))
	bus.RegisterHandler(StartIdentifier, HandlerFunc(func(Event) { order = append(order, 3) }))

	bus.Dispatch(StartIdentifier, NewStartEvent(nil))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDispatchWithNoHandlersIsANoop(t *testing.T) {
	bus := New(nil)
	event := NewCgrpcEvent("mod", "handler", []byte("payload"))
	assert.NotPanics(t, func() { bus.Dispatch(CgrpcIdentifier, event) })
	assert.Nil(t, event.Output)
}

func TestStartEventCancel(t *testing.T) {
	event := NewStartEvent(nil)
	assert.False(t, event.Cancelled())
	event.Cancel()
	assert.True(t, event.Cancelled())
}

func TestBuiltinPrototypesRegisteredAtBoot(t *testing.T) {
	bus := New(nil)

	for _, id := range []types.Identifier{StartIdentifier, AuthIdentifier, AdminAuthIdentifier, CgrpcIdentifier} {
		proto, ok := bus.Prototype(id)
		assert.True(t, ok, "expected a prototype for %s", id)
		assert.Equal(t, id, proto.ID())
	}
}

func TestPrototypeLookupReturnsAClone(t *testing.T) {
	bus := New(nil)

	first, ok := bus.Prototype(CgrpcIdentifier)
	assert.True(t, ok)
	first.Cancel()

	second, ok := bus.Prototype(CgrpcIdentifier)
	assert.True(t, ok)
	assert.False(t, second.Cancelled(), "mutating one clone must not affect later lookups")
}

func TestRegisterPrototypeOverridesPriorEntry(t *testing.T) {
	bus := New(nil)

	custom := NewStartEvent([]ModuleInfo{{ID: "fib", Name: "fib"}})
	bus.RegisterPrototype(custom)

	proto, ok := bus.Prototype(StartIdentifier)
	assert.True(t, ok)
	start, ok := proto.(*StartEvent)
	assert.True(t, ok)
	assert.Equal(t, []ModuleInfo{{ID: "fib", Name: "fib"}}, start.Modules)
}

func TestPrototypeMissingReturnsFalse(t *testing.T) {
	bus := New(nil)
	_, ok := bus.Prototype(types.NewIdentifier("unknown", "event"))
	assert.False(t, ok)
}
