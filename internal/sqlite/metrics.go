package sqlite

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Statement operations and transaction outcomes used as metric labels.
const (
	opExecute = "execute"
	opRun     = "run"

	outcomeCommit   = "commit"
	outcomeRollback = "rollback"
)

// Metrics counts storage activity. A nil *Metrics records nothing.
type Metrics struct {
	statements   *prometheus.CounterVec
	failures     *prometheus.CounterVec
	transactions *prometheus.CounterVec
	persists     prometheus.Counter
	imageBytes   prometheus.Gauge
}

// NewMetrics creates the storage collectors and registers them with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landmark",
			Subsystem: "storage",
			Name:      "statements_total",
			Help:      "SQL statements issued, by backend and operation.",
		}, []string{"backend", "op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landmark",
			Subsystem: "storage",
			Name:      "statement_errors_total",
			Help:      "SQL statements that returned an error, by backend and operation.",
		}, []string{"backend", "op"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landmark",
			Subsystem: "storage",
			Name:      "transactions_total",
			Help:      "Finished transactions, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		persists: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "landmark",
			Subsystem: "storage",
			Name:      "image_persists_total",
			Help:      "Database images written to the block store.",
		}),
		imageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "landmark",
			Subsystem: "storage",
			Name:      "image_bytes",
			Help:      "Size of the last persisted database image.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.statements, m.failures, m.transactions, m.persists, m.imageBytes)
	}
	return m
}

func (m *Metrics) statement(b types.Backend, op string) {
	if m == nil {
		return
	}
	m.statements.WithLabelValues(string(b), op).Inc()
}

func (m *Metrics) failure(b types.Backend, op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(b), op).Inc()
}

func (m *Metrics) transaction(b types.Backend, outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(string(b), outcome).Inc()
}

func (m *Metrics) persisted(size int) {
	if m == nil {
		return
	}
	m.persists.Inc()
	m.imageBytes.Set(float64(size))
}
