package prommetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// Metrics implements ledger.Metrics using Prometheus.
type Metrics struct {
	quotaChecksTotal     *prometheus.CounterVec
	quotaCheckDuration   *prometheus.HistogramVec
	queriesRecordedTotal prometheus.Counter
	compactionRemoved    prometheus.Counter
	storeErrorsTotal     *prometheus.CounterVec
	failOpenTotal        *prometheus.CounterVec
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		quotaChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_checks_total",
			Help:      "Total number of quota checks by outcome.",
		}, []string{"allowed", "limit"}),

		quotaCheckDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quota_check_duration_seconds",
			Help:      "Latency of quota checks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"allowed"}),

		queriesRecordedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_recorded_total",
			Help:      "Total number of accepted queries written to the ledger.",
		}),

		compactionRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compaction_removed_records_total",
			Help:      "Total number of stale query records removed by compaction.",
		}),

		storeErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of record store operation errors.",
		}, []string{"operation"}),

		failOpenTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fail_open_total",
			Help:      "Total number of checks allowed because enforcement was unavailable.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) RecordQuotaCheck(_ string, allowed bool, kind ledger.LimitKind, duration time.Duration) {
	m.quotaChecksTotal.WithLabelValues(strconv.FormatBool(allowed), string(kind)).Inc()
	m.quotaCheckDuration.WithLabelValues(strconv.FormatBool(allowed)).Observe(duration.Seconds())
}

func (m *Metrics) RecordQueryRecorded(_ string) {
	m.queriesRecordedTotal.Inc()
}

func (m *Metrics) RecordCompaction(_ string, removed int) {
	m.compactionRemoved.Add(float64(removed))
}

func (m *Metrics) RecordStoreError(operation string) {
	m.storeErrorsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordFailOpen(reason string) {
	m.failOpenTotal.WithLabelValues(reason).Inc()
}

// DefaultMetrics returns a Metrics implementation using the default Prometheus registerer.
func DefaultMetrics(namespace string) *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
