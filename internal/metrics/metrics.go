package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Façade operation metrics
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embeddb_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embeddb_operation_duration_seconds",
			Help:    "Database operation latencies in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// Transaction metrics
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embeddb_transactions_total",
			Help: "Total number of write transactions by outcome",
		},
		[]string{"engine", "status"},
	)

	ObjectsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embeddb_objects_written_total",
			Help: "Total number of objects upserted, per object type",
		},
		[]string{"type"},
	)

	ObjectsDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embeddb_objects_deleted_total",
			Help: "Total number of objects deleted individually, per object type",
		},
		[]string{"type"},
	)

	// Connection lifecycle metrics
	ConfigureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embeddb_configure_total",
			Help: "Total number of configure calls by storage mode and outcome",
		},
		[]string{"storage_mode", "status"},
	)

	OpenHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embeddb_open_handles",
			Help: "Number of store handles currently open",
		},
	)

	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "embeddb_build_info",
			Help: "Build information about embeddb",
		},
		[]string{"version", "go_version"},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusOf maps an error to a status label
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
