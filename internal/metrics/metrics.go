package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	CatalogRuns     prometheus.Counter
	CatalogFailures prometheus.Counter
	PriceRuns       prometheus.Counter
	PriceFailures   prometheus.Counter

	PagesFetched        prometheus.Counter
	FetchTruncated      prometheus.Counter
	ItemsUpserted       prometheus.Counter
	ObservationsWritten prometheus.Counter
	DealsFound          prometheus.Counter
	DealsSwept          prometheus.Counter
	FeedErrors          prometheus.Counter

	RunSeconds prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	catalogRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_catalog_runs_total"})
	catalogFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_catalog_failures_total"})
	priceRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_price_runs_total"})
	priceFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_price_failures_total"})

	pagesFetched := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_pages_fetched_total"})
	fetchTruncated := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_fetch_truncated_total"})
	itemsUpserted := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_catalog_items_upserted_total"})
	observations := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_observations_written_total"})
	dealsFound := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_deals_found_total"})
	dealsSwept := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_deals_swept_total"})
	feedErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "bricksync_feed_errors_total"})

	runSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bricksync_run_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(catalogRuns, catalogFailures, priceRuns, priceFailures,
		pagesFetched, fetchTruncated, itemsUpserted, observations,
		dealsFound, dealsSwept, feedErrors, runSeconds)
	return &Registry{
		reg:                 r,
		CatalogRuns:         catalogRuns,
		CatalogFailures:     catalogFailures,
		PriceRuns:           priceRuns,
		PriceFailures:       priceFailures,
		PagesFetched:        pagesFetched,
		FetchTruncated:      fetchTruncated,
		ItemsUpserted:       itemsUpserted,
		ObservationsWritten: observations,
		DealsFound:          dealsFound,
		DealsSwept:          dealsSwept,
		FeedErrors:          feedErrors,
		RunSeconds:          runSeconds,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
