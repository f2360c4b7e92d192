// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Resource label values used by the Recorder.
const (
	ResourceCategory = "category"
	ResourceBudget   = "budget"
	ResourceExpense  = "expense"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Resource lifecycle
	IncCreated(resource string)
	IncUpdated(resource string)
	IncDeleted(resource string)

	// Policy denials
	IncForbidden(resource string)
	IncInUse(resource string)

	// Authentication
	IncAuthFailure()

	// List response cache
	IncListCacheHit(resource string)
	IncListCacheMiss(resource string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
