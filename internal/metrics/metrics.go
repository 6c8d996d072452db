package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skyroute"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	EntriesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_created_total",
		Help:      "Entries created, by entry type",
	}, []string{"type"})

	EntriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_deleted_total",
		Help:      "Entries removed by operators",
	})

	SequenceAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sequence_allocations_total",
		Help:      "Document numbers handed out, by document type and strategy",
	}, []string{"doc_type", "strategy"})

	SequenceConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sequence_conflicts_total",
		Help:      "Inserts rejected by the unique number index and retried",
	}, []string{"doc_type"})

	SheetsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sheets_archived_total",
		Help:      "In Bond Control Sheet PDFs uploaded to object storage",
	})
)
