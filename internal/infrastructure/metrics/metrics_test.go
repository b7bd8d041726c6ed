package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.Reloads == nil || m.Commits == nil || m.HTTPRequests == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.Commits.WithLabelValues(CommitSuccess).Inc()
	m.PendingItems.Set(3)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.Commits.WithLabelValues(CommitSuccess)); got != 1 {
		t.Errorf("expected 1 successful commit, got %v", got)
	}
	if got := testutil.ToFloat64(m.PendingItems); got != 3 {
		t.Errorf("expected 3 pending items, got %v", got)
	}
}

func TestNewWithRegistryIsolated(t *testing.T) {
	// Two registries can each hold a full set without conflicts.
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}
