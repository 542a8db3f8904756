package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the census module.
type Metrics struct {
	VotersAdded   prometheus.Counter
	VotersRemoved prometheus.Counter
	RollsReused   prometheus.Counter

	// Rejected mutations by operation: "add", "reuse", "import"
	Conflicts *prometheus.CounterVec

	// Import rows by outcome: "imported", "failed"
	ImportRows *prometheus.CounterVec

	Exports *prometheus.CounterVec

	// Eligibility cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec

	ImportDuration prometheus.Histogram
	ExportDuration *prometheus.HistogramVec
}

// New registers the census metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		VotersAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "decide_census_voters_added_total",
			Help: "Total census entries created",
		}),
		VotersRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "decide_census_voters_removed_total",
			Help: "Total census entries deleted",
		}),
		RollsReused: factory.NewCounter(prometheus.CounterOpts{
			Name: "decide_census_rolls_reused_total",
			Help: "Total successful roll reuse operations",
		}),
		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decide_census_conflicts_total",
			Help: "Mutations rejected because an entry already existed",
		}, []string{"operation"}),
		ImportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decide_census_import_rows_total",
			Help: "Bulk import rows by outcome",
		}, []string{"outcome"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decide_census_exports_total",
			Help: "Bulk exports by format",
		}, []string{"format"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decide_census_eligibility_cache_lookups_total",
			Help: "Eligibility cache lookups by result",
		}, []string{"result"}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "decide_census_import_duration_seconds",
			Help:    "Duration of bulk imports including validation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ExportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "decide_census_export_duration_seconds",
			Help:    "Duration of bulk exports by format",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"format"}),
	}
}

func (m *Metrics) IncrementVotersAdded(n int) {
	if m != nil && n > 0 {
		m.VotersAdded.Add(float64(n))
	}
}

func (m *Metrics) IncrementVotersRemoved(n int) {
	if m != nil && n > 0 {
		m.VotersRemoved.Add(float64(n))
	}
}

func (m *Metrics) IncrementRollsReused() {
	if m != nil {
		m.RollsReused.Inc()
	}
}

func (m *Metrics) IncrementConflict(operation string) {
	if m != nil {
		m.Conflicts.WithLabelValues(operation).Inc()
	}
}

// RecordImport counts imported and failed rows.
func (m *Metrics) RecordImport(imported, failed int) {
	if m == nil {
		return
	}
	m.ImportRows.WithLabelValues("imported").Add(float64(imported))
	m.ImportRows.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) RecordCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveImport(start time.Time) {
	if m != nil {
		m.ImportDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveExport(format string, start time.Time) {
	if m != nil {
		m.Exports.WithLabelValues(format).Inc()
		m.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}
}
