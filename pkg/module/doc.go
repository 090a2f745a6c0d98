// Package module implements the module loader (C4): it scans a
// directory for bundles, unpacks each to a scratch directory, loads
// its dynamic library, validates ABI compatibility, and invokes the
// library's registration entry against the engine's registry and
// event bus.
package module
