package taskstore

import "errors"

var (
	// ErrNotRegistered is returned by Enqueue when the identifier has no
	// registered template.
	ErrNotRegistered = errors.New("taskstore: identifier has no registered template")

	// ErrNoTask is returned by Acquire when the queue is empty or absent.
	ErrNoTask = errors.New("taskstore: no queued task for identifier")

	// ErrNotAssigned is returned by Publish when no processing entry
	// matches the given task id and worker uid.
	ErrNotAssigned = errors.New("taskstore: task not assigned to this worker")

	// ErrVerifyFailed is returned by Publish when the template rejects
	// the returned payload.
	ErrVerifyFailed = errors.New("taskstore: payload failed template verification")

	// ErrNotFound is returned by Delete when the task id is absent from
	// the named collection.
	ErrNotFound = errors.New("taskstore: task not found in collection")
)
