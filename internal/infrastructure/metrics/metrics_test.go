package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Replace global default registry to allow test inspection.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.MovementsCreated == nil || m.RateLookups == nil || m.QuoteLookups == nil || m.OutboxPublished == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.MovementsCreated.WithLabelValues("entrega", "ARS").Inc()
	m.RateLookups.WithLabelValues("provider").Add(2)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "cuentas_rate_lookups_total" {
			continue
		}
		found = true
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 2 {
			t.Fatalf("expected 2 provider lookups, got %v", got)
		}
	}
	if !found {
		t.Fatal("rate lookup counter not gathered")
	}
}
