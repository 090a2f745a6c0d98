// Package dispatch implements the Dispatch Service (C5): the only
// component that mutates the task state store. Every operation shares
// an auth preamble that delegates to the event bus, then maps internal
// errors to the four client-facing status kinds.
package dispatch
