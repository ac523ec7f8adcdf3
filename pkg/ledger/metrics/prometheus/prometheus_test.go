package prommetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

func TestPrometheusMetrics_NewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "viajeia")

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestPrometheusMetrics_RecordQuotaCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "viajeia")

	metrics.RecordQuotaCheck("user1", true, "", 5*time.Millisecond)
	metrics.RecordQuotaCheck("user1", false, ledger.LimitPerMinute, 5*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	checks := findFamily(families, "viajeia_quota_checks_total")
	if checks == nil {
		t.Fatal("Expected quota_checks_total to be registered")
	}
	if len(checks.Metric) != 2 {
		t.Errorf("Expected 2 labeled series, got %d", len(checks.Metric))
	}
}

func TestPrometheusMetrics_RecordCompaction(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "viajeia")

	metrics.RecordCompaction("user1", 3)
	metrics.RecordCompaction("user1", 2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	removed := findFamily(families, "viajeia_compaction_removed_records_total")
	if removed == nil {
		t.Fatal("Expected compaction_removed_records_total to be registered")
	}
	if got := removed.Metric[0].GetCounter().GetValue(); got != 5 {
		t.Errorf("Expected 5 removed records, got %v", got)
	}
}

func TestPrometheusMetrics_RecordFailOpen(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "viajeia")

	metrics.RecordFailOpen("store_unavailable")
	metrics.RecordStoreError("get_records")
	metrics.RecordQueryRecorded("user1")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	if findFamily(families, "viajeia_fail_open_total") == nil {
		t.Error("Expected fail_open_total to be registered")
	}
	if findFamily(families, "viajeia_store_errors_total") == nil {
		t.Error("Expected store_errors_total to be registered")
	}
	if findFamily(families, "viajeia_queries_recorded_total") == nil {
		t.Error("Expected queries_recorded_total to be registered")
	}
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}
