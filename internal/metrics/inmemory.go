package metrics

import "sync"

// Snapshot captures current in-memory counters, keyed by resource.
type Snapshot struct {
	Created         map[string]uint64
	Updated         map[string]uint64
	Deleted         map[string]uint64
	Forbidden       map[string]uint64
	InUse           map[string]uint64
	AuthFailures    uint64
	ListCacheHits   map[string]uint64
	ListCacheMisses map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu              sync.Mutex
	created         map[string]uint64
	updated         map[string]uint64
	deleted         map[string]uint64
	forbidden       map[string]uint64
	inUse           map[string]uint64
	authFailures    uint64
	listCacheHits   map[string]uint64
	listCacheMisses map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		created:         make(map[string]uint64),
		updated:         make(map[string]uint64),
		deleted:         make(map[string]uint64),
		forbidden:       make(map[string]uint64),
		inUse:           make(map[string]uint64),
		listCacheHits:   make(map[string]uint64),
		listCacheMisses: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Created:         copyCounts(m.created),
		Updated:         copyCounts(m.updated),
		Deleted:         copyCounts(m.deleted),
		Forbidden:       copyCounts(m.forbidden),
		InUse:           copyCounts(m.inUse),
		AuthFailures:    m.authFailures,
		ListCacheHits:   copyCounts(m.listCacheHits),
		ListCacheMisses: copyCounts(m.listCacheMisses),
	}
}

func (m *InMemoryRecorder) IncCreated(resource string)   { m.inc(m.created, resource) }
func (m *InMemoryRecorder) IncUpdated(resource string)   { m.inc(m.updated, resource) }
func (m *InMemoryRecorder) IncDeleted(resource string)   { m.inc(m.deleted, resource) }
func (m *InMemoryRecorder) IncForbidden(resource string) { m.inc(m.forbidden, resource) }
func (m *InMemoryRecorder) IncInUse(resource string)     { m.inc(m.inUse, resource) }

func (m *InMemoryRecorder) IncAuthFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailures++
}

func (m *InMemoryRecorder) IncListCacheHit(resource string)  { m.inc(m.listCacheHits, resource) }
func (m *InMemoryRecorder) IncListCacheMiss(resource string) { m.inc(m.listCacheMisses, resource) }

func (m *InMemoryRecorder) inc(counts map[string]uint64, resource string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts[resource]++
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
