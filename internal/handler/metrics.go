package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/spendwise/spendwise/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "spendwise_resources_created_total", snap.Created)
	writeLabeled(w, "spendwise_resources_updated_total", snap.Updated)
	writeLabeled(w, "spendwise_resources_deleted_total", snap.Deleted)
	writeLabeled(w, "spendwise_forbidden_total", snap.Forbidden)
	writeLabeled(w, "spendwise_in_use_total", snap.InUse)
	writeLabeled(w, "spendwise_list_cache_hits_total", snap.ListCacheHits)
	writeLabeled(w, "spendwise_list_cache_misses_total", snap.ListCacheMisses)

	_, _ = fmt.Fprintf(w, "spendwise_auth_failures_total %d\n", snap.AuthFailures)
}

// writeLabeled writes one line per resource label, in stable order.
func writeLabeled(w http.ResponseWriter, name string, counts map[string]uint64) {
	resources := make([]string, 0, len(counts))
	for resource := range counts {
		resources = append(resources, resource)
	}
	sort.Strings(resources)
	for _, resource := range resources {
		_, _ = fmt.Fprintf(w, "%s{resource=%q} %d\n", name, resource, counts[resource])
	}
}
