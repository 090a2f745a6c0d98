package storage

// KV is the durable store the task state store is mirrored to. The
// core treats it as an opaque mapping from bytes to bytes with atomic
// single-key put/get; it knows nothing about tasks, templates, or
// identifiers.
type KV interface {
	// Get returns the value stored at key, or (nil, false) if key is
	// absent. The returned slice is the caller's to keep.
	Get(key []byte) ([]byte, bool, error)

	// Put atomically stores value at key, replacing any prior value.
	Put(key []byte, value []byte) error

	// Close flushes and releases the underlying store.
	Close() error
}
