// Package taskstore implements the task state store (C2): three
// collections — queued, processing, solved — keyed by task-type
// identifier, mirrored to a durable KV under three fixed keys.
package taskstore
