// Package metrics defines and registers the Prometheus metrics exposed
// by the dispatch server: queue depths, task throughput counters,
// RPC and reclaim-cycle latency histograms, and module load outcomes.
// It also carries the ambient health/readiness/liveness HTTP handlers.
package metrics
