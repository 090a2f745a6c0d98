// Package types holds the data model shared across the dispatch server:
// task-type identifiers, the task wire containers, and their lifecycle
// state.
package types

import "time"

// Identifier names a task type or an event: a (namespace, name) pair.
// Equality and hashing are componentwise, which is exactly what Go gives
// for free when Identifier is used as a map key.
type Identifier struct {
	Namespace string
	Name      string
}

// NewIdentifier builds an Identifier from its two parts.
func NewIdentifier(namespace, name string) Identifier {
	return Identifier{Namespace: namespace, Name: name}
}

// String renders the identifier in its wire form "namespace:name".
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Name
}

// ParseIdentifier parses "namespace:name" into an Identifier. The input
// must split on ":" into exactly two non-empty parts.
func ParseIdentifier(s string) (Identifier, error) {
	parts, err := splitExactlyTwo(s)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{Namespace: parts[0], Name: parts[1]}, nil
}

func splitExactlyTwo(s string) ([2]string, error) {
	idx := -1
	for i, r := range s {
		if r == ':' {
			if idx != -1 {
				return [2]string{}, errTooManyParts
			}
			idx = i
		}
	}
	if idx <= 0 || idx == len(s)-1 {
		return [2]string{}, errBadFormat
	}
	return [2]string{s[:idx], s[idx+1:]}, nil
}

// State names one of the three collections a task can occupy.
type State int

const (
	Queued State = iota
	Processing
	Solved
)

// String renders the state for logs and RPC responses.
func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Processing:
		return "processing"
	case Solved:
		return "solved"
	default:
		return "unknown"
	}
}

// StoredTask is a task payload at rest: queued or solved.
type StoredTask struct {
	ID      string
	Payload []byte
}

// StoredExecutingTask is a task payload currently assigned to a worker.
type StoredExecutingTask struct {
	ID      string
	Payload []byte
	UserID  string
	GivenAt time.Time
}
