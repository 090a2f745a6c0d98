// Package storage provides the durable KV contract the task state store
// is mirrored to: an opaque bytes-to-bytes mapping with atomic
// single-key put/get, backed by BoltDB.
package storage
