package taskstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/GrandEngineering/engine/pkg/types"
)

// EncodeQueueSnapshot and DecodeQueueSnapshot expose the "tasks"/
// "solved_tasks" wire format to callers outside this package (the
// pack/unpack CLI), which produces and consumes the same binary shape
// Store persists under those KV keys.
func EncodeQueueSnapshot(m map[types.Identifier][]types.StoredTask) []byte {
	return encodeTaskMap(m)
}

func DecodeQueueSnapshot(data []byte) (map[types.Identifier][]types.StoredTask, error) {
	return decodeTaskMap(data)
}

// The wire format for all three snapshots is little-endian
// length-prefixed binary: a uint32 count of identifiers, then per
// identifier a uint32-prefixed namespace, a uint32-prefixed name, a
// uint32 count of entries, and the entries themselves. Task entries
// encode as (id, payload); executing entries additionally carry
// (user-id, given-at as UnixNano int64).

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// encodeTaskMap serializes an identifier -> []StoredTask map (used for
// both queued and solved, which differ only in FIFO-vs-append-only
// semantics at the caller; the wire shape is identical).
func encodeTaskMap(m map[types.Identifier][]types.StoredTask) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(m)))
	for id, tasks := range m {
		writeBytes(&buf, []byte(id.Namespace))
		writeBytes(&buf, []byte(id.Name))
		binary.Write(&buf, binary.LittleEndian, uint32(len(tasks)))
		for _, t := range tasks {
			writeBytes(&buf, []byte(t.ID))
			writeBytes(&buf, t.Payload)
		}
	}
	return buf.Bytes()
}

// decodeTaskMap is the inverse of encodeTaskMap. A truncated or
// malformed buffer is reported as an error; the caller treats that as
// deserialization drift and substitutes an empty map.
func decodeTaskMap(data []byte) (map[types.Identifier][]types.StoredTask, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("taskstore: decode task map header: %w", err)
	}
	out := make(map[types.Identifier][]types.StoredTask, count)
	for i := uint32(0); i < count; i++ {
		ns, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		name, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		tasks := make([]types.StoredTask, 0, n)
		for j := uint32(0); j < n; j++ {
			id, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			payload, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, types.StoredTask{ID: string(id), Payload: payload})
		}
		out[types.Identifier{Namespace: string(ns), Name: string(name)}] = tasks
	}
	return out, nil
}

// encodeExecutingMap serializes the processing map.
func encodeExecutingMap(m map[types.Identifier][]types.StoredExecutingTask) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(m)))
	for id, tasks := range m {
		writeBytes(&buf, []byte(id.Namespace))
		writeBytes(&buf, []byte(id.Name))
		binary.Write(&buf, binary.LittleEndian, uint32(len(tasks)))
		for _, t := range tasks {
			writeBytes(&buf, []byte(t.ID))
			writeBytes(&buf, t.Payload)
			writeBytes(&buf, []byte(t.UserID))
			binary.Write(&buf, binary.LittleEndian, t.GivenAt.UTC().UnixNano())
		}
	}
	return buf.Bytes()
}

func decodeExecutingMap(data []byte) (map[types.Identifier][]types.StoredExecutingTask, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("taskstore: decode executing map header: %w", err)
	}
	out := make(map[types.Identifier][]types.StoredExecutingTask, count)
	for i := uint32(0); i < count; i++ {
		ns, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		name, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		tasks := make([]types.StoredExecutingTask, 0, n)
		for j := uint32(0); j < n; j++ {
			id, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			payload, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			uid, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			var nanos int64
			if err := binary.Read(r, binary.LittleEndian, &nanos); err != nil {
				return nil, err
			}
			tasks = append(tasks, types.StoredExecutingTask{
				ID:      string(id),
				Payload: payload,
				UserID:  string(uid),
				GivenAt: time.Unix(0, nanos).UTC(),
			})
		}
		out[types.Identifier{Namespace: string(ns), Name: string(name)}] = tasks
	}
	return out, nil
}
