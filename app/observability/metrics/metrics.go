package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ChatMessagesTotal        metric.Int64Counter
	RecommendationsTotal     metric.Int64Counter
	RouteResolveDuration     metric.Float64Histogram
	RouteResolveErrorsTotal  metric.Int64Counter
	CompletionErrorsTotal    metric.Int64Counter
	NavigationSessionsActive metric.Int64UpDownCounter
	DbQueryDurationSeconds   metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("bantadthong")
		var err error
		m := &AppMetrics{}

		m.ChatMessagesTotal, err = meter.Int64Counter(
			"chat_messages_total",
			metric.WithDescription("Total chat messages processed"),
			metric.WithUnit("{message}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_messages_total: %v", err)
		}

		m.RecommendationsTotal, err = meter.Int64Counter(
			"recommendations_total",
			metric.WithDescription("Total recommendation queries served"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendations_total: %v", err)
		}

		m.RouteResolveDuration, err = meter.Float64Histogram(
			"route_resolve_duration_seconds",
			metric.WithDescription("Duration of route resolutions in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_resolve_duration_seconds: %v", err)
		}

		m.RouteResolveErrorsTotal, err = meter.Int64Counter(
			"route_resolve_errors_total",
			metric.WithDescription("Total failed route resolutions"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_resolve_errors_total: %v", err)
		}

		m.CompletionErrorsTotal, err = meter.Int64Counter(
			"completion_errors_total",
			metric.WithDescription("Total completion-service failures"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create completion_errors_total: %v", err)
		}

		m.NavigationSessionsActive, err = meter.Int64UpDownCounter(
			"navigation_sessions_active",
			metric.WithDescription("Currently active navigation sessions"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create navigation_sessions_active: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
