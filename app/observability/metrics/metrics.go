package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Fields are public so feature packages can record directly.
type AppMetrics struct {
	TourAPIRequestsTotal   metric.Int64Counter
	TourAPIRetriesTotal    metric.Int64Counter
	TourAPIErrorsTotal     metric.Int64Counter
	TourAPIDurationSeconds metric.Float64Histogram

	StatsCacheHitsTotal   metric.Int64Counter
	StatsCacheMissesTotal metric.Int64Counter

	BookmarkOpsTotal       metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after tracer.InitTracingAndMetrics to reach the Prometheus exporter.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("KoreaTourExplorer")
		m := &AppMetrics{}

		m.TourAPIRequestsTotal = int64Counter(meter, "tour_api_requests_total",
			"Total number of logical calls to the tourism API", "{request}")
		m.TourAPIRetriesTotal = int64Counter(meter, "tour_api_retries_total",
			"Total number of retried attempts against the tourism API", "{retry}")
		m.TourAPIErrorsTotal = int64Counter(meter, "tour_api_errors_total",
			"Total number of failed tourism API calls by error kind", "{error}")
		m.TourAPIDurationSeconds = float64Histogram(meter, "tour_api_duration_seconds",
			"Duration of tourism API calls including retries")

		m.StatsCacheHitsTotal = int64Counter(meter, "stats_cache_hits_total",
			"Total number of statistics cache hits", "{hit}")
		m.StatsCacheMissesTotal = int64Counter(meter, "stats_cache_misses_total",
			"Total number of statistics cache misses", "{miss}")

		m.BookmarkOpsTotal = int64Counter(meter, "bookmark_operations_total",
			"Total number of bookmark store operations", "{operation}")
		m.DbQueryDurationSeconds = float64Histogram(meter, "db_query_duration_seconds",
			"Duration of database queries in seconds")
		m.DbQueryErrorsTotal = int64Counter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global AppMetrics instance, initializing it against the
// current MeterProvider on first use. Without a configured provider the
// instruments are no-ops, which keeps tests free of setup.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func int64Counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func float64Histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
