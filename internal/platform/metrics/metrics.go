package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ParcelsCreated       prometheus.Counter
	PipelineFailures     *prometheus.CounterVec
	PinDuration          prometheus.Histogram
	SnapshotDuration     prometheus.Histogram
	VerificationRequests prometheus.Counter
	Appraisals           prometheus.Counter
	LoansIssued          prometheus.Counter
	LoanRepayments       *prometheus.CounterVec
	LedgerWriteDuration  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ParcelsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "landq_parcels_created_total",
			Help: "Total number of parcel metadata documents published",
		}),
		PipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landq_pipeline_failures_total",
			Help: "Parcel creation pipeline failures by stage",
		}, []string{"stage"}),
		PinDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "landq_pin_duration_seconds",
			Help:    "Latency of content-addressed uploads",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "landq_snapshot_duration_seconds",
			Help:    "Latency of snapshot rendering",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45},
		}),
		VerificationRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "landq_verification_requests_total",
			Help: "Total verification requests accepted by the ledger",
		}),
		Appraisals: factory.NewCounter(prometheus.CounterOpts{
			Name: "landq_appraisals_total",
			Help: "Total appraisals submitted",
		}),
		LoansIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "landq_loans_issued_total",
			Help: "Total loans issued",
		}),
		LoanRepayments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landq_loan_repayments_total",
			Help: "Loan repayments by settlement currency",
		}, []string{"currency"}),
		LedgerWriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landq_ledger_write_duration_seconds",
			Help:    "Broadcast-to-confirmation latency of ledger writes",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
		}, []string{"op"}),
	}
}

// ObserveLedgerWrite records the confirmation latency for a named ledger write.
func (m *Metrics) ObserveLedgerWrite(op string, start time.Time) {
	m.LedgerWriteDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
