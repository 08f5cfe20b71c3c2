package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of change events fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of change events processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of change events failed to process",
		},
		[]string{"topic"},
	)
	ChangeEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_change_events_published_total",
			Help: "Change events published after mutations",
		},
		[]string{"result"}, // ok|error
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_operations_total",
			Help: "Product store operations",
		},
		[]string{"kind", "op"}, // kind: page|entity; op: hit|miss|set|stale_write|clear
	)
	CacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_cache_entries",
			Help: "Number of entries currently in the product store",
		},
		[]string{"kind"},
	)
)

var (
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_gateway_requests_total",
			Help: "Requests to the remote product gateway",
		},
		[]string{"op", "result"}, // result: ok|not_found|error
	)
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_gateway_request_seconds",
			Help:    "Latency of remote product gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	CoordinatorFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_coordinator_fetches_total",
			Help: "Coordinator fetch outcomes",
		},
		[]string{"result"}, // cache_hit|resolved|failed|stale_discarded
	)
	ListingSyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_listing_sync_failures_total",
			Help: "Failed best-effort listing sync calls",
		},
		[]string{"op"}, // create|update
	)
	ReorderAdvisories = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_reorder_advisories_total",
			Help: "Reorder advisories emitted",
		},
	)
)

var registerOnce sync.Once

// MustRegister — регистрация коллекторов в default registry; повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed, ChangeEventsPublished,
			CacheOps, CacheEntries,
			GatewayRequests, GatewayLatency, CoordinatorFetches, ListingSyncFailures, ReorderAdvisories,
		)
	})
}
