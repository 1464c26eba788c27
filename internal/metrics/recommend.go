package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation engine metrics.
var (
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"strategy", "status"}, // status: "ok" / "error"
	)

	RecommendationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Recommendation latency in seconds, snapshot build included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"strategy"},
	)

	SnapshotBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_builds_total",
			Help:      "Catalog vector snapshots built, by origin",
		},
		[]string{"strategy", "source"}, // source: "fresh" / "disk"
	)

	SnapshotBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_build_duration_seconds",
			Help:      "Time to fit and vectorize the catalog",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_total",
			Help:      "Query vector cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	UnknownIngredientsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_ingredients_total",
			Help:      "Query ingredients absent from the embedding vocabulary",
		},
	)

	CatalogRecipes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_recipes",
			Help:      "Recipes in the active catalog",
		},
	)

	ReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Catalog and embedding reloads",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RecommendationsTotal,
		RecommendationDuration,
		SnapshotBuildsTotal,
		SnapshotBuildDuration,
		QueryCacheTotal,
		UnknownIngredientsTotal,
		CatalogRecipes,
		ReloadsTotal,
	)
}
