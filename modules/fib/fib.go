// Package fib is the example task module: a single task type,
// "fib:compute", whose payload is two little-endian uint64s (n,
// result). It demonstrates the Template contract end to end and is
// loaded through module.LoadDevMode rather than a bundle.
package fib

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/GrandEngineering/engine/pkg/module"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/GrandEngineering/engine/pkg/types"
)

// Identifier is fib's registered task type.
var Identifier = types.NewIdentifier("fib", "compute")

// Job is the decoded instance: compute fibonacci(N), with Result
// holding either the caller's guess (pre-Execute) or the verified
// value (post-Execute).
type Job struct {
	N      uint64
	Result uint64
}

type template struct{}

// Template is the registry.Template implementation for fib:compute.
var Template registry.Template = template{}

func (template) Verify(payload []byte) bool {
	return len(payload) == 16
}

func (template) Decode(payload []byte) (registry.Instance, error) {
	if len(payload) != 16 {
		return nil, fmt.Errorf("fib: payload must be 16 bytes, got %d", len(payload))
	}
	return Job{
		N:      binary.LittleEndian.Uint64(payload[:8]),
		Result: binary.LittleEndian.Uint64(payload[8:]),
	}, nil
}

func (template) Encode(instance registry.Instance) ([]byte, error) {
	job, ok := instance.(Job)
	if !ok {
		return nil, fmt.Errorf("fib: encode expects a Job, got %T", instance)
	}
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[:8], job.N)
	binary.LittleEndian.PutUint64(b[8:], job.Result)
	return b, nil
}

func (template) RenderConfig(instance registry.Instance) (string, error) {
	job, ok := instance.(Job)
	if !ok {
		return "", fmt.Errorf("fib: render expects a Job, got %T", instance)
	}
	return fmt.Sprintf("n = %d\nresult = %d\n", job.N, job.Result), nil
}

func (template) ParseConfig(text string) (registry.Instance, error) {
	var job Job
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("fib: malformed config line %q", line)
		}
		key = strings.TrimSpace(key)
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fib: bad integer in %q: %w", line, err)
		}
		switch key {
		case "n":
			job.N = n
		case "result":
			job.Result = n
		default:
			return nil, fmt.Errorf("fib: unknown config key %q", key)
		}
	}
	return job, nil
}

func (template) Execute(instance registry.Instance) (registry.Instance, error) {
	job, ok := instance.(Job)
	if !ok {
		return nil, fmt.Errorf("fib: execute expects a Job, got %T", instance)
	}
	job.Result = compute(job.N)
	return job, nil
}

func compute(n uint64) uint64 {
	if n < 2 {
		return n
	}
	var a, b uint64 = 0, 1
	for i := uint64(2); i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

// Metadata returns this module's static identity, matching the symbol
// a real .rustforge.tar bundle would export.
func Metadata() module.Metadata {
	return module.Metadata{
		ModID:            "fib",
		Name:             "Fibonacci example",
		Author:           "core",
		Version:          "1.0.0",
		Description:      "Computes fibonacci(n) as the example task type",
		License:          "MIT",
		ABIVersion:       module.ABIVersion,
		ToolchainVersion: module.ToolchainVersion,
	}
}

// Run registers fib:compute against the engine handle. It installs no
// event handlers.
func Run(handle module.EngineHandle) {
	handle.Registry().Register(Identifier, Template)
}
