package registry_test

import (
	"testing"

	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTemplate struct{ tag string }

func (stubTemplate) Verify(payload []byte) bool                          { return true }
func (stubTemplate) Decode(payload []byte) (registry.Instance, error)    { return payload, nil }
func (stubTemplate) Encode(instance registry.Instance) ([]byte, error)   { return nil, nil }
func (stubTemplate) RenderConfig(registry.Instance) (string, error)      { return "", nil }
func (stubTemplate) ParseConfig(string) (registry.Instance, error)       { return nil, nil }
func (stubTemplate) Execute(i registry.Instance) (registry.Instance, error) { return i, nil }

func TestRegisterAndGet(t *testing.T) {
	reg := registry.New()
	id := types.NewIdentifier("ns", "name")
	tmpl := stubTemplate{tag: "a"}

	reg.Register(id, tmpl)

	got, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, tmpl, got)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	reg := registry.New()
	_, ok := reg.Get(types.NewIdentifier("ns", "missing"))
	assert.False(t, ok)
}

func TestRegisterOverridesOnConflict(t *testing.T) {
	reg := registry.New()
	id := types.NewIdentifier("ns", "name")

	reg.Register(id, stubTemplate{tag: "a"})
	reg.Register(id, stubTemplate{tag: "b"})

	got, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, stubTemplate{tag: "b"}, got)
}

func TestListReturnsAllRegisteredIdentifiers(t *testing.T) {
	reg := registry.New()
	idA := types.NewIdentifier("ns", "a")
	idB := types.NewIdentifier("ns", "b")

	reg.Register(idA, stubTemplate{})
	reg.Register(idB, stubTemplate{})

	ids := reg.List()
	assert.ElementsMatch(t, []types.Identifier{idA, idB}, ids)
}
