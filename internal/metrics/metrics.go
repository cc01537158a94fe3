package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request gate metrics
	GateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flatblog_gate_decisions_total",
			Help: "Requests seen by the request gate, by decision",
		},
		[]string{"decision"},
	)

	BlocklistReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flatblog_blocklist_reloads_total",
			Help: "Number of times the blocklist file was re-read",
		},
	)

	BlockedAddresses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flatblog_blocked_addresses",
			Help: "Addresses in the most recently loaded blocklist",
		},
	)

	// Content store metrics
	PostsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flatblog_posts_total",
			Help: "Posts held by the content store",
		},
	)

	ContentMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flatblog_content_mutations_total",
			Help: "Content store mutations by kind and result",
		},
		[]string{"kind", "result"},
	)

	ContentSaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flatblog_content_save_duration_seconds",
			Help:    "Time spent rewriting the content file",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Audit metrics
	AuditEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flatblog_audit_entries_total",
			Help: "Audit entries by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(GateDecisions)
	prometheus.MustRegister(BlocklistReloads)
	prometheus.MustRegister(BlockedAddresses)
	prometheus.MustRegister(PostsTotal)
	prometheus.MustRegister(ContentMutations)
	prometheus.MustRegister(ContentSaveDuration)
	prometheus.MustRegister(AuditEntries)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
