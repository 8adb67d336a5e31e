package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/isitsafe/app/observability/metrics"
	"github.com/FACorreiaa/isitsafe/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// ErrCityNotFound is the service-level form of a slug that matches no city.
var ErrCityNotFound = errors.New("city not found")

// Service is the read-only query surface over the loaded catalog.
type Service interface {
	ListCities(ctx context.Context) []types.City
	GetCity(ctx context.Context, slug string) (types.City, error)
	ListSlugs(ctx context.Context) []string
	CitiesByRegion(ctx context.Context, regionSlug string) []types.City
	RelatedCities(ctx context.Context, slug string) ([]types.City, error)
	Regions(ctx context.Context) []types.RegionGroup
	Stats(ctx context.Context) types.CatalogStats
	Rankings(ctx context.Context) []types.RankedCity
	StaleCities(ctx context.Context) []types.City
	Metadata(ctx context.Context) types.DatasetMetadata
}

type ServiceImpl struct {
	logger     *slog.Logger
	catalog    *Catalog
	clock      clockwork.Clock
	staleAfter time.Duration
	metrics    *metrics.AppMetrics
}

func NewServiceImpl(catalog *Catalog, clock clockwork.Clock, staleAfter time.Duration, m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		catalog:    catalog,
		clock:      clock,
		staleAfter: staleAfter,
		metrics:    m,
	}
}

// LoadCatalog performs the one-time dataset load and builds the catalog.
func LoadCatalog(ctx context.Context, repo CityRepository, m *metrics.AppMetrics, logger *slog.Logger) (*Catalog, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "LoadCatalog")
	defer span.End()

	start := time.Now()
	ds, err := repo.LoadDataset(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, fmt.Errorf("failed to load city dataset: %w", err)
	}

	catalog, err := NewCatalog(ds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid dataset")
		return nil, err
	}

	elapsed := time.Since(start)
	if m != nil {
		m.DatasetLoadDurationSeconds.Record(ctx, elapsed.Seconds())
		m.DatasetCities.Add(ctx, int64(catalog.Len()))
	}
	logger.InfoContext(ctx, "City dataset loaded",
		slog.Int("cities", catalog.Len()),
		slog.String("version", ds.Metadata.Version),
		slog.Duration("took", elapsed),
	)
	span.SetAttributes(attribute.Int("cities.count", catalog.Len()))
	span.SetStatus(codes.Ok, "catalog built")
	return catalog, nil
}

func (s *ServiceImpl) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("CityService").Start(ctx, op, trace.WithAttributes(attrs...))
	if s.metrics != nil {
		s.metrics.CityLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	}
	return ctx, span
}

func (s *ServiceImpl) ListCities(ctx context.Context) []types.City {
	_, span := s.start(ctx, "ListCities")
	defer span.End()
	return s.catalog.AllCities()
}

func (s *ServiceImpl) GetCity(ctx context.Context, slug string) (types.City, error) {
	ctx, span := s.start(ctx, "GetCity", attribute.String("city.slug", slug))
	defer span.End()

	c, ok := s.catalog.CityBySlug(slug)
	if !ok {
		s.notFound(ctx, slug)
		span.SetStatus(codes.Error, "city not found")
		return types.City{}, fmt.Errorf("%w: %q", ErrCityNotFound, slug)
	}
	span.SetStatus(codes.Ok, "city found")
	return c, nil
}

func (s *ServiceImpl) ListSlugs(ctx context.Context) []string {
	_, span := s.start(ctx, "ListSlugs")
	defer span.End()
	return s.catalog.AllSlugs()
}

func (s *ServiceImpl) CitiesByRegion(ctx context.Context, regionSlug string) []types.City {
	_, span := s.start(ctx, "CitiesByRegion", attribute.String("region.slug", regionSlug))
	defer span.End()

	cities := s.catalog.CitiesByRegion(regionSlug)
	span.SetAttributes(attribute.Int("cities.count", len(cities)))
	return cities
}

func (s *ServiceImpl) RelatedCities(ctx context.Context, slug string) ([]types.City, error) {
	ctx, span := s.start(ctx, "RelatedCities", attribute.String("city.slug", slug))
	defer span.End()

	c, ok := s.catalog.CityBySlug(slug)
	if !ok {
		s.notFound(ctx, slug)
		return nil, fmt.Errorf("%w: %q", ErrCityNotFound, slug)
	}
	related := s.catalog.RelatedCities(c)
	span.SetAttributes(
		attribute.Int("related.requested", len(c.RelatedCities)),
		attribute.Int("related.resolved", len(related)),
	)
	return related, nil
}

func (s *ServiceImpl) Regions(ctx context.Context) []types.RegionGroup {
	_, span := s.start(ctx, "Regions")
	defer span.End()
	return s.catalog.Regions()
}

func (s *ServiceImpl) Stats(ctx context.Context) types.CatalogStats {
	_, span := s.start(ctx, "Stats")
	defer span.End()
	return s.catalog.Stats()
}

func (s *ServiceImpl) Rankings(ctx context.Context) []types.RankedCity {
	_, span := s.start(ctx, "Rankings")
	defer span.End()
	return s.catalog.Rankings()
}

func (s *ServiceImpl) StaleCities(ctx context.Context) []types.City {
	ctx, span := s.start(ctx, "StaleCities")
	defer span.End()

	stale := s.catalog.StaleCities(s.clock.Now(), s.staleAfter)
	if len(stale) > 0 {
		s.logger.DebugContext(ctx, "Stale cities found",
			slog.Int("count", len(stale)),
			slog.Duration("max_age", s.staleAfter),
		)
	}
	return stale
}

func (s *ServiceImpl) Metadata(ctx context.Context) types.DatasetMetadata {
	_, span := s.start(ctx, "Metadata")
	defer span.End()
	return s.catalog.Metadata()
}

func (s *ServiceImpl) notFound(ctx context.Context, slug string) {
	if s.metrics != nil {
		s.metrics.CityNotFoundTotal.Add(ctx, 1)
	}
	s.logger.DebugContext(ctx, "City not found", slog.String("slug", slug))
}
