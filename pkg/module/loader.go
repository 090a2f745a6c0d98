package module

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/GrandEngineering/engine/pkg/events"
	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/metrics"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/rs/zerolog"
)

// RunFunc is the signature every module's "run" entry point must have.
type RunFunc func(EngineHandle)

// MetadataFunc is the signature every module's "metadata" entry point
// must have.
type MetadataFunc func() Metadata

// Loader owns the registry and event bus modules register into, and
// tracks which modules have been loaded for the process lifetime.
// Unloading is not supported: functions registered by a module remain
// callable for as long as the process runs (spec §4.4).
type Loader struct {
	registry *registry.Registry
	bus      *events.Bus

	abiVersion       string
	toolchainVersion string

	loaded map[string]Metadata
	logger zerolog.Logger
}

// New creates a Loader bound to reg and bus, checking loaded modules
// against abiVersion/toolchainVersion.
func New(reg *registry.Registry, bus *events.Bus, abiVersion, toolchainVersion string) *Loader {
	return &Loader{
		registry:         reg,
		bus:              bus,
		abiVersion:       abiVersion,
		toolchainVersion: toolchainVersion,
		loaded:           make(map[string]Metadata),
		logger:           log.WithComponent("module"),
	}
}

// Registry implements EngineHandle.
func (l *Loader) Registry() *registry.Registry { return l.registry }

// Events implements EngineHandle.
func (l *Loader) Events() *events.Bus { return l.bus }

// Loaded returns the metadata of every accepted module, in load order
// undefined (map iteration); callers sort if they need determinism.
func (l *Loader) Loaded() []Metadata {
	out := make([]Metadata, 0, len(l.loaded))
	for _, m := range l.loaded {
		out = append(out, m)
	}
	return out
}

// LoadAll scans modsDir for bundles ending in ".rustforge.tar", unpacks
// each into a scratch directory under modsDir, and loads the contained
// library. A module rejected for ABI mismatch or a load failure is
// logged and skipped; the server continues (spec §7).
func (l *Loader) LoadAll(modsDir string) error {
	entries, err := os.ReadDir(modsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("module: read mods dir: %w", err)
	}

	scratchRoot := filepath.Join(modsDir, ".scratch")
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return fmt.Errorf("module: create scratch root: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), bundleSuffix) {
			continue
		}

		bundlePath := filepath.Join(modsDir, entry.Name())
		libPath, err := unpackBundle(bundlePath, scratchRoot)
		if err != nil {
			l.logger.Warn().Err(err).Str("bundle", entry.Name()).Msg("failed to unpack module bundle")
			metrics.ModulesRejectedTotal.Inc()
			continue
		}

		if err := l.loadLibrary(libPath); err != nil {
			l.logger.Warn().Err(err).Str("bundle", entry.Name()).Msg("failed to load module")
			metrics.ModulesRejectedTotal.Inc()
			continue
		}
	}

	return nil
}

func (l *Loader) loadLibrary(path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("module: open plugin: %w", err)
	}

	metadataSym, err := p.Lookup("Metadata")
	if err != nil {
		return fmt.Errorf("module: missing Metadata symbol: %w", err)
	}
	metadataFn, ok := metadataSym.(func() Metadata)
	if !ok {
		return fmt.Errorf("module: Metadata symbol has wrong signature")
	}
	meta := metadataFn()

	if meta.ABIVersion != l.abiVersion || meta.ToolchainVersion != l.toolchainVersion {
		return fmt.Errorf("module: ABI mismatch: lib abi=%s toolchain=%s, engine abi=%s toolchain=%s",
			meta.ABIVersion, meta.ToolchainVersion, l.abiVersion, l.toolchainVersion)
	}

	runSym, err := p.Lookup("Run")
	if err != nil {
		return fmt.Errorf("module: missing Run symbol: %w", err)
	}
	runFn, ok := runSym.(func(EngineHandle))
	if !ok {
		return fmt.Errorf("module: Run symbol has wrong signature")
	}

	runFn(l)

	if _, dup := l.loaded[meta.ModID]; dup {
		l.logger.Warn().Str("mod_id", meta.ModID).Msg("duplicate module id, last load wins")
	}
	l.loaded[meta.ModID] = meta
	metrics.ModulesLoadedTotal.Inc()
	l.logger.Info().Str("mod_id", meta.ModID).Str("name", meta.Name).Str("author", meta.Author).Msg("module loaded")
	return nil
}

// LoadDevMode installs a module directly from in-process metadata and
// run function, without a ".rustforge.tar" bundle or the plugin
// package's dynamic loading. Used by the example fib module and by
// tests.
func (l *Loader) LoadDevMode(meta Metadata, run RunFunc) {
	run(l)
	l.loaded[meta.ModID] = meta
	metrics.ModulesLoadedTotal.Inc()
	l.logger.Info().Str("mod_id", meta.ModID).Str("name", meta.Name).Msg("module loaded (dev mode)")
}

// ModuleInfos converts the loaded metadata set into events.ModuleInfo
// values for the start_event broadcast.
func (l *Loader) ModuleInfos() []events.ModuleInfo {
	out := make([]events.ModuleInfo, 0, len(l.loaded))
	for _, m := range l.loaded {
		out = append(out, events.ModuleInfo{ID: m.ModID, Name: m.Name, Author: m.Author, Version: m.Version})
	}
	return out
}
