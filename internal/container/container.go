package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	database "github.com/FACorreiaa/isitsafe/app/db"
	"github.com/FACorreiaa/isitsafe/app/observability/metrics"
	"github.com/FACorreiaa/isitsafe/config"
	"github.com/FACorreiaa/isitsafe/internal/api/city"
)

// Container holds all application dependencies.
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Catalog     *city.Catalog
	CityService city.Service
	CityHandler *city.Handler
}

// NewContainer loads the city dataset from the configured source and wires
// the service and handler around it.
func NewContainer(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	repo, err := c.cityRepository(ctx, m)
	if err != nil {
		c.Close()
		return nil, err
	}

	catalog, err := city.LoadCatalog(ctx, repo, m, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Catalog = catalog
	c.CityService = city.NewServiceImpl(catalog, clockwork.NewRealClock(), cfg.StaleAfter(), m, logger)
	c.CityHandler = city.NewCityHandler(c.CityService, logger)
	return c, nil
}

func (c *Container) cityRepository(ctx context.Context, m *metrics.AppMetrics) (city.CityRepository, error) {
	switch c.Config.Dataset.Source {
	case config.DatasetSourceFile:
		return city.NewFileCityRepository(c.Config.Dataset.Path, c.Logger), nil
	case config.DatasetSourcePostgres:
		pool, err := OpenDatabase(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		return city.NewPostgresCityRepository(pool, m, c.Logger), nil
	}
	return nil, fmt.Errorf("unknown dataset source %q", c.Config.Dataset.Source)
}

// OpenDatabase migrates the schema, opens the pool and waits until it answers.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		return nil, err
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}
	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, fmt.Errorf("database not ready after waiting")
	}
	return pool, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
