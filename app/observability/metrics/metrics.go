package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	ExportRecordsNormalized      metric.Int64Counter
	ExportRecordsSkipped         metric.Int64Counter
	RecommendationRequestsTotal  metric.Int64Counter
	RecommendationDurationSecond metric.Float64Histogram
	VerificationRequestsTotal    metric.Int64Counter
	AssistantLatencySeconds      metric.Float64Histogram
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("PlaceRecs")
		var err error
		m := &AppMetrics{}

		m.ExportRecordsNormalized, err = meter.Int64Counter(
			"export_records_normalized_total",
			metric.WithDescription("Total number of export records that yielded a usable place name"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create export_records_normalized_total: %v", err)
		}

		m.ExportRecordsSkipped, err = meter.Int64Counter(
			"export_records_skipped_total",
			metric.WithDescription("Total number of export records skipped during normalization"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create export_records_skipped_total: %v", err)
		}

		m.RecommendationRequestsTotal, err = meter.Int64Counter(
			"recommendation_requests_total",
			metric.WithDescription("Total number of recommendation requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_requests_total: %v", err)
		}

		m.RecommendationDurationSecond, err = meter.Float64Histogram(
			"recommendation_duration_seconds",
			metric.WithDescription("Duration of recommendation requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_duration_seconds: %v", err)
		}

		m.VerificationRequestsTotal, err = meter.Int64Counter(
			"destination_verifications_total",
			metric.WithDescription("Total number of destination verification requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create destination_verifications_total: %v", err)
		}

		m.AssistantLatencySeconds, err = meter.Float64Histogram(
			"assistant_latency_seconds",
			metric.WithDescription("Latency of generative assistant calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create assistant_latency_seconds: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, initializing it
// against the current global MeterProvider on first use.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
