// Package metrics exposes Prometheus collectors for the indexing and retrieval pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticketrag"

// Skip reasons recorded by AttachmentSkipped.
const (
	SkipDownload  = "download"
	SkipExtract   = "extract"
	SkipEmpty     = "empty"
	SkipDuplicate = "duplicate"
)

// Metrics holds the service collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	chunksIndexed      prometheus.Counter
	vectorsDeleted     prometheus.Counter
	attachmentsSkipped *prometheus.CounterVec
	indexDuration      prometheus.Histogram
	queryDuration      prometheus.Histogram
	variantFailures    prometheus.Counter
	queryResults       prometheus.Histogram
	llmCalls           *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		chunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_indexed_total",
			Help:      "Chunks upserted into the vector store.",
		}),
		vectorsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_deleted_total",
			Help:      "Chunks removed by reindex purges.",
		}),
		attachmentsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_skipped_total",
			Help:      "Attachments skipped during indexing, by reason.",
		}, []string{"reason"}),
		indexDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_duration_seconds",
			Help:      "Duration of ensure-index runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of retrieval queries including indexing and answer synthesis.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		variantFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_variant_failures_total",
			Help:      "Query variants whose embedding or search failed.",
		}),
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Results returned per query after fusion.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
		}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Language model completions, by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chunksIndexed,
		m.vectorsDeleted,
		m.attachmentsSkipped,
		m.indexDuration,
		m.queryDuration,
		m.variantFailures,
		m.queryResults,
		m.llmCalls,
		m.httpRequests,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ChunksIndexed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksIndexed.Add(float64(n))
}

func (m *Metrics) VectorsDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.vectorsDeleted.Add(float64(n))
}

func (m *Metrics) AttachmentSkipped(reason string) {
	if m == nil {
		return
	}
	m.attachmentsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveIndex(d time.Duration) {
	if m == nil {
		return
	}
	m.indexDuration.Observe(d.Seconds())
}

// ObserveQuery records one query's duration and fused result count.
func (m *Metrics) ObserveQuery(d time.Duration, results int) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(d.Seconds())
	m.queryResults.Observe(float64(results))
}

func (m *Metrics) VariantFailed() {
	if m == nil {
		return
	}
	m.variantFailures.Inc()
}

// LLMCall records a completion; ok is false when the call failed.
func (m *Metrics) LLMCall(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.llmCalls.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
