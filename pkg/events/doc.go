// Package events implements the event bus (C3): a name-keyed registry
// of ordered handler chains, dispatched synchronously, plus a separate
// prototype registry of default event instances kept for reflection
// and extension. It is the extension surface for authentication, admin
// authentication, the custom-RPC channel, and the boot-time start
// broadcast.
package events
