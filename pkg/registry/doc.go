// Package registry implements the task-type registry (component C1):
// one immutable template per (namespace, name), installed once at boot
// by modules; a looked-up template is used without further locking.
package registry
