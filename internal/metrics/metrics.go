// Package metrics defines Prometheus metrics for the casedex engine.
// Registration is explicit from main; nothing registers in init().
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Corpus and graph build metrics.
var (
	ChunksIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "chunks_ingested_total",
			Help:      "Total number of chunks ingested into the corpus",
		},
		[]string{"kind"}, // "document" / "letter_example"
	)

	CorpusBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "casedex",
			Name:      "corpus_build_duration_seconds",
			Help:      "Knowledge graph build duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	GraphNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "casedex",
			Name:      "graph_nodes",
			Help:      "Number of nodes in the knowledge graph",
		},
	)

	GraphEdges = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "casedex",
			Name:      "graph_edges",
			Help:      "Number of edges in the knowledge graph by kind",
		},
		[]string{"kind"}, // "same_case_explicit" / "same_case_similarity"
	)

	BipartiteKeywords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "casedex",
			Name:      "bipartite_keywords",
			Help:      "Number of case-scoped keyword nodes in the bipartite index",
		},
	)
)

// Retrieval and generation metrics.
var (
	RetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "retrievals_total",
			Help:      "Total case-scoped retrieval queries",
		},
		[]string{"status"}, // "ok" / "empty_case" / "error"
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "casedex",
			Name:      "retrieval_duration_seconds",
			Help:      "Case-scoped retrieval duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
	)

	SectionsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "sections_generated_total",
			Help:      "Total sections generated",
		},
		[]string{"status"}, // "ok" / "no_information" / "fallback_concat"
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "generation_requests_total",
			Help:      "Total generation provider requests",
		},
		[]string{"model", "status"}, // status: "success" / "error" / "placeholder"
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casedex",
			Name:      "generation_request_duration_seconds",
			Help:      "Generation provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)
)

// Embedding metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casedex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registered bool

// Register registers all casedex metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(ChunksIngestedTotal)
	prometheus.MustRegister(CorpusBuildDuration)
	prometheus.MustRegister(GraphNodes)
	prometheus.MustRegister(GraphEdges)
	prometheus.MustRegister(BipartiteKeywords)
	prometheus.MustRegister(RetrievalsTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(SectionsGeneratedTotal)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	registered = true
}
