package fib

import (
	"testing"

	"github.com/GrandEngineering/engine/pkg/events"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	reg *registry.Registry
	bus *events.Bus
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{reg: registry.New(), bus: events.New(nil)}
}

func (h *fakeHandle) Registry() *registry.Registry { return h.reg }
func (h *fakeHandle) Events() *events.Bus          { return h.bus }

func TestVerifyRequiresSixteenBytes(t *testing.T) {
	assert.True(t, Template.Verify(make([]byte, 16)))
	assert.False(t, Template.Verify(make([]byte, 15)))
	assert.False(t, Template.Verify(nil))
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	payload := make([]byte, 16)
	payload[0] = 10

	instance, err := Template.Decode(payload)
	require.NoError(t, err)
	job := instance.(Job)
	assert.Equal(t, uint64(10), job.N)
	assert.Equal(t, uint64(0), job.Result)

	out, err := Template.Encode(job)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestExecuteComputesFibonacci(t *testing.T) {
	result, err := Template.Execute(Job{N: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(55), result.(Job).Result)
}

func TestExecuteBaseCases(t *testing.T) {
	for n, want := range map[uint64]uint64{0: 0, 1: 1, 2: 1, 3: 2} {
		result, err := Template.Execute(Job{N: n})
		require.NoError(t, err)
		assert.Equal(t, want, result.(Job).Result, "fib(%d)", n)
	}
}

func TestRenderParseConfigRoundTrip(t *testing.T) {
	job := Job{N: 7, Result: 13}

	text, err := Template.RenderConfig(job)
	require.NoError(t, err)

	instance, err := Template.ParseConfig(text)
	require.NoError(t, err)
	assert.Equal(t, job, instance)
}

func TestRunRegistersTemplate(t *testing.T) {
	handle := newFakeHandle()
	Run(handle)

	tmpl, ok := handle.Registry().Get(Identifier)
	require.True(t, ok)
	assert.Equal(t, Template, tmpl)
}
