// Package reclaim implements the Reclaimer (C6): a ticking background
// loop that periodically sweeps the task store for processing entries
// stuck past a staleness threshold and returns them to the queue.
package reclaim
