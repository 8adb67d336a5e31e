package metrics

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for every instrument below.
const MeterName = "isitsafe"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	CityLookupsTotal           metric.Int64Counter
	CityNotFoundTotal          metric.Int64Counter
	DatasetLoadDurationSeconds metric.Float64Histogram
	DatasetCities              metric.Int64UpDownCounter
	DbQueryDurationSeconds     metric.Float64Histogram
	DbQueryErrorsTotal         metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Set the provider (see tracer.InitTracingAndMetrics) before calling it.
func InitAppMetrics() error {
	once.Do(func() {
		appMetrics, initErr = New(otel.GetMeterProvider().Meter(MeterName))
	})
	return initErr
}

// Get returns the global instruments. It panics if InitAppMetrics was not called.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// New builds a fresh set of instruments on meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.CityLookupsTotal, err = meter.Int64Counter(
		"city_lookups_total",
		metric.WithDescription("Total number of city data accessor queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create city_lookups_total: %w", err)
	}

	m.CityNotFoundTotal, err = meter.Int64Counter(
		"city_not_found_total",
		metric.WithDescription("Total number of slug lookups that matched no city"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create city_not_found_total: %w", err)
	}

	m.DatasetLoadDurationSeconds, err = meter.Float64Histogram(
		"dataset_load_duration_seconds",
		metric.WithDescription("Duration of the one-time city dataset load"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dataset_load_duration_seconds: %w", err)
	}

	m.DatasetCities, err = meter.Int64UpDownCounter(
		"dataset_cities",
		metric.WithDescription("Number of cities in the loaded dataset"),
		metric.WithUnit("{city}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dataset_cities: %w", err)
	}

	m.DbQueryDurationSeconds, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration_seconds: %w", err)
	}

	m.DbQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_errors_total: %w", err)
	}

	return m, nil
}
