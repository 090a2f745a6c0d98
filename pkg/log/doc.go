// Package log provides structured logging for the dispatch server using
// zerolog: a process-wide Logger configured once via Init, and
// component-scoped child loggers handed to the registry, taskstore,
// event bus, module loader, dispatch service, and reclaimer.
package log
