package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// DuneQuerySubmitted Dune 查询相关
	DuneQuerySubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dune_query_submitted_total",
			Help: "Total number of query executions submitted to Dune.",
		},
		[]string{"query_id", "result"},
	)
	DunePollChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dune_poll_checks_total",
			Help: "Number of execution status checks by observed state.",
		},
		[]string{"state"},
	)
	DunePollRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dune_poll_retries_total",
			Help: "Number of transient errors retried while polling.",
		},
	)

	// ImportDuration 买家导入
	ImportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "import_duration_seconds",
			Help:    "Time taken by one buyer import run.",
			Buckets: []float64{1, 5, 30, 60, 120, 300, 600},
		},
		[]string{"result"},
	)
	ImportAddresses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_addresses_total",
			Help: "Promising addresses created or updated by imports.",
		},
		[]string{"op"},
	)

	// JobRuns 定时作业
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Scheduled job executions by outcome.",
		},
		[]string{"job", "result"},
	)
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Time taken by one scheduled job execution.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 150},
		},
		[]string{"job"},
	)

	// HTTPRequests API 请求
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests handled.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken to handle an API request.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"route"},
	)

	// AsyncWriterMessagesQueued AsyncWriter 指标
	AsyncWriterMessagesQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_queued_total",
			Help: "Total number of messages queued to async writer.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterMessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_dropped_total",
			Help: "Total number of messages dropped due to full queue.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_flush_duration_seconds",
			Help:    "Time taken to flush a batch.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"writer_id"},
	)
	AsyncWriterItemsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_items_written_total",
			Help: "Total number of items successfully written by the async writer.",
		},
		[]string{"writer_id"},
	)
)

func init() {
	prometheus.MustRegister(
		// dune 指标
		DuneQuerySubmitted,
		DunePollChecks,
		DunePollRetries,

		// 导入指标
		ImportDuration,
		ImportAddresses,

		JobRuns,
		JobDuration,

		HTTPRequests,
		HTTPRequestDuration,

		// async 写入指标
		AsyncWriterMessagesQueued,
		AsyncWriterMessagesDropped,
		AsyncWriterFlushDuration,
		AsyncWriterItemsWritten,
	)
}
