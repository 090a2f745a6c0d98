package taskstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/GrandEngineering/engine/pkg/storage"
	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/rs/zerolog"
)

const (
	keyQueued    = "tasks"
	keyExecuting = "executing_tasks"
	keySolved    = "solved_tasks"
)

// Store is the task state store (C2). All access is serialized by the
// caller's writer lock (see pkg/dispatch and pkg/reclaim); Store itself
// adds only enough locking to make a standalone Store safe to use from
// tests without that outer lock.
type Store struct {
	mu sync.Mutex

	registry *registry.Registry
	kv       storage.KV
	logger   zerolog.Logger

	paginationLimit *uint32

	queued     map[types.Identifier][]types.StoredTask
	processing map[types.Identifier][]types.StoredExecutingTask
	solved     map[types.Identifier][]types.StoredTask
}

// New loads a Store from kv, treating an absent or corrupt key as an
// empty collection and immediately re-persisting it (crash recovery,
// spec §4.2).
func New(reg *registry.Registry, kv storage.KV, paginationLimit *uint32) (*Store, error) {
	s := &Store{
		registry:        reg,
		kv:              kv,
		logger:          log.WithComponent("taskstore"),
		paginationLimit: paginationLimit,
	}

	s.queued = s.loadTaskMap(keyQueued)
	s.processing = s.loadExecutingMap(keyExecuting)
	s.solved = s.loadTaskMap(keySolved)

	if err := s.persistQueued(); err != nil {
		return nil, err
	}
	if err := s.persistProcessing(); err != nil {
		return nil, err
	}
	if err := s.persistSolved(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) loadTaskMap(key string) map[types.Identifier][]types.StoredTask {
	data, ok, err := s.kv.Get([]byte(key))
	if !ok || err != nil {
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("reading snapshot failed, starting empty")
		}
		return make(map[types.Identifier][]types.StoredTask)
	}
	m, err := decodeTaskMap(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("snapshot deserialization drift, starting empty")
		return make(map[types.Identifier][]types.StoredTask)
	}
	return m
}

func (s *Store) loadExecutingMap(key string) map[types.Identifier][]types.StoredExecutingTask {
	data, ok, err := s.kv.Get([]byte(key))
	if !ok || err != nil {
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("reading snapshot failed, starting empty")
		}
		return make(map[types.Identifier][]types.StoredExecutingTask)
	}
	m, err := decodeExecutingMap(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("snapshot deserialization drift, starting empty")
		return make(map[types.Identifier][]types.StoredExecutingTask)
	}
	return m
}

func (s *Store) persistQueued() error {
	return s.kv.Put([]byte(keyQueued), encodeTaskMap(s.queued))
}

func (s *Store) persistProcessing() error {
	return s.kv.Put([]byte(keyExecuting), encodeExecutingMap(s.processing))
}

func (s *Store) persistSolved() error {
	return s.kv.Put([]byte(keySolved), encodeTaskMap(s.solved))
}

// Enqueue appends storedTask to the queued sequence for id.
func (s *Store) Enqueue(id types.Identifier, task types.StoredTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry.Get(id); !ok {
		return ErrNotRegistered
	}

	s.queued[id] = append(s.queued[id], task)
	return s.persistQueued()
}

// Acquire pops the head of queued[id] and moves it into processing[id],
// stamped with workerUID and the current time.
func (s *Store) Acquire(id types.Identifier, workerUID string) (types.StoredTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queued[id]
	if len(q) == 0 {
		return types.StoredTask{}, ErrNoTask
	}

	head := q[0]
	s.queued[id] = q[1:]

	s.processing[id] = append(s.processing[id], types.StoredExecutingTask{
		ID:      head.ID,
		Payload: head.Payload,
		UserID:  workerUID,
		GivenAt: time.Now().UTC(),
	})

	if err := s.persistQueued(); err != nil {
		return types.StoredTask{}, err
	}
	if err := s.persistProcessing(); err != nil {
		return types.StoredTask{}, err
	}

	return head, nil
}

// Publish verifies newPayload against id's template, moves the matching
// processing entry to solved.
func (s *Store) Publish(id types.Identifier, taskID, workerUID string, newPayload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, ok := s.registry.Get(id)
	if !ok {
		return ErrNotRegistered
	}

	entries := s.processing[id]
	idx := -1
	for i, e := range entries {
		if e.ID == taskID && e.UserID == workerUID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotAssigned
	}

	if !tmpl.Verify(newPayload) {
		return ErrVerifyFailed
	}

	s.processing[id] = append(entries[:idx], entries[idx+1:]...)
	s.solved[id] = append(s.solved[id], types.StoredTask{ID: taskID, Payload: newPayload})

	if err := s.persistProcessing(); err != nil {
		return err
	}
	return s.persistSolved()
}

// Delete removes taskID from the named collection of id.
func (s *Store) Delete(id types.Identifier, taskID string, state types.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	switch state {
	case types.Queued:
		s.queued[id], found = removeTask(s.queued[id], taskID)
	case types.Processing:
		s.processing[id], found = removeExecuting(s.processing[id], taskID)
	case types.Solved:
		s.solved[id], found = removeTask(s.solved[id], taskID)
	}
	if !found {
		return ErrNotFound
	}

	if err := s.persistQueued(); err != nil {
		return err
	}
	if err := s.persistProcessing(); err != nil {
		return err
	}
	return s.persistSolved()
}

func removeTask(entries []types.StoredTask, taskID string) ([]types.StoredTask, bool) {
	for i, e := range entries {
		if e.ID == taskID {
			return append(entries[:i], entries[i+1:]...), true
		}
	}
	return entries, false
}

func removeExecuting(entries []types.StoredExecutingTask, taskID string) ([]types.StoredExecutingTask, bool) {
	for i, e := range entries {
		if e.ID == taskID {
			return append(entries[:i], entries[i+1:]...), true
		}
	}
	return entries, false
}

// List returns a deterministic page of id's named collection, sorted
// ascending lexicographic on task id. Empty collections yield empty
// pages, never errors.
func (s *Store) List(id types.Identifier, state types.State, page, size uint32) []types.StoredTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	byID := make(map[string]types.StoredTask)

	switch state {
	case types.Queued:
		for _, e := range s.queued[id] {
			ids = append(ids, e.ID)
			byID[e.ID] = e
		}
	case types.Processing:
		for _, e := range s.processing[id] {
			ids = append(ids, e.ID)
			byID[e.ID] = types.StoredTask{ID: e.ID, Payload: e.Payload}
		}
	case types.Solved:
		for _, e := range s.solved[id] {
			ids = append(ids, e.ID)
			byID[e.ID] = e
		}
	}

	sort.Strings(ids)

	effSize := size
	if s.paginationLimit != nil && *s.paginationLimit < effSize {
		effSize = *s.paginationLimit
	}

	start := uint64(page) * uint64(effSize)
	if start >= uint64(len(ids)) {
		return []types.StoredTask{}
	}
	end := start + uint64(effSize)
	if end > uint64(len(ids)) {
		end = uint64(len(ids))
	}

	out := make([]types.StoredTask, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, byID[id])
	}
	return out
}

// Reload discards the in-memory mirrors and re-initializes them from
// the KV. ReclaimCycle does the same reload inline after its writes.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queued = s.loadTaskMap(keyQueued)
	s.processing = s.loadExecutingMap(keyExecuting)
	s.solved = s.loadTaskMap(keySolved)
}

// ReclaimCycle implements the reclaimer's per-tick contract (spec §4.6):
// read "executing_tasks" from the KV, partition entries older than
// threshold back into "tasks", persist pruned-processing then
// extended-queued (in that order), then reload the in-memory mirrors.
// A deserialize failure on read yields no reclamation this cycle, not
// an error; a write failure is returned so the caller can log it. It
// returns the number of entries reclaimed.
func (s *Store) ReclaimCycle(threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.kv.Get([]byte(keyExecuting))
	if err != nil {
		s.logger.Warn().Err(err).Msg("reclaim: reading executing_tasks failed, skipping cycle")
		return 0, nil
	}
	if !ok {
		return 0, nil
	}
	executing, err := decodeExecutingMap(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reclaim: deserialize drift on executing_tasks, skipping cycle")
		return 0, nil
	}

	now := time.Now().UTC()
	pruned := make(map[types.Identifier][]types.StoredExecutingTask, len(executing))
	reclaimed := make(map[types.Identifier][]types.StoredTask)

	var count int
	for id, entries := range executing {
		var keep []types.StoredExecutingTask
		for _, e := range entries {
			if now.Sub(e.GivenAt) > threshold {
				reclaimed[id] = append(reclaimed[id], types.StoredTask{ID: e.ID, Payload: e.Payload})
				count++
			} else {
				keep = append(keep, e)
			}
		}
		pruned[id] = keep
	}

	if err := s.kv.Put([]byte(keyExecuting), encodeExecutingMap(pruned)); err != nil {
		return 0, fmt.Errorf("taskstore: persist pruned processing: %w", err)
	}

	queuedData, ok, err := s.kv.Get([]byte(keyQueued))
	var queued map[types.Identifier][]types.StoredTask
	if err != nil || !ok {
		queued = make(map[types.Identifier][]types.StoredTask)
	} else if queued, err = decodeTaskMap(queuedData); err != nil {
		queued = make(map[types.Identifier][]types.StoredTask)
	}
	for id, tasks := range reclaimed {
		queued[id] = append(queued[id], tasks...)
	}

	if err := s.kv.Put([]byte(keyQueued), encodeTaskMap(queued)); err != nil {
		return 0, fmt.Errorf("taskstore: persist extended queue: %w", err)
	}

	s.queued = s.loadTaskMap(keyQueued)
	s.processing = s.loadExecutingMap(keyExecuting)
	s.solved = s.loadTaskMap(keySolved)

	return count, nil
}

// KV exposes the underlying durable store for components that need
// direct access outside the five core operations.
func (s *Store) KV() storage.KV {
	return s.kv
}

// Counts returns the current size of id's queued, processing, and
// solved collections, for gauge metrics.
func (s *Store) Counts(id types.Identifier) (queued, processing, solved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queued[id]), len(s.processing[id]), len(s.solved[id])
}
