package city

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/isitsafe/app/observability/metrics"
	"github.com/FACorreiaa/isitsafe/internal/types"
)

var (
	_ CityRepository = (*FileCityRepository)(nil)
	_ CityRepository = (*PostgresCityRepository)(nil)
)

// CityRepository produces the dataset for the one-time load.
type CityRepository interface {
	LoadDataset(ctx context.Context) (*types.Dataset, error)
}

// FileCityRepository reads the dataset from a JSON file.
type FileCityRepository struct {
	logger *slog.Logger
	path   string
}

func NewFileCityRepository(path string, logger *slog.Logger) *FileCityRepository {
	return &FileCityRepository{
		logger: logger,
		path:   path,
	}
}

func (r *FileCityRepository) LoadDataset(ctx context.Context) (*types.Dataset, error) {
	ctx, span := otel.Tracer("CityRepository").Start(ctx, "LoadDataset.File")
	defer span.End()
	span.SetAttributes(attribute.String("dataset.path", r.path))

	raw, err := os.ReadFile(r.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("failed to read dataset %s: %w", r.path, err)
	}

	var ds types.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("failed to decode dataset %s: %w", r.path, err)
	}

	r.logger.DebugContext(ctx, "Dataset file read", slog.String("path", r.path), slog.Int("cities", len(ds.Cities)))
	return &ds, nil
}

// PgxPool is the subset of *pgxpool.Pool the Postgres repository uses.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCityRepository stores one JSONB document per city, ordered by position.
type PostgresCityRepository struct {
	logger  *slog.Logger
	pgpool  PgxPool
	metrics *metrics.AppMetrics
}

func NewPostgresCityRepository(pgpool PgxPool, m *metrics.AppMetrics, logger *slog.Logger) *PostgresCityRepository {
	return &PostgresCityRepository{
		logger:  logger,
		pgpool:  pgpool,
		metrics: m,
	}
}

const (
	selectMetadataQuery = `SELECT document FROM dataset_metadata WHERE id = 1`
	selectCitiesQuery   = `SELECT document FROM cities ORDER BY position`
	deleteCitiesQuery   = `DELETE FROM cities`
	upsertMetadataQuery = `
        INSERT INTO dataset_metadata (id, document, loaded_at)
        VALUES (1, $1, now())
        ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, loaded_at = EXCLUDED.loaded_at
    `
	insertCityQuery = `
        INSERT INTO cities (slug, position, region_slug, document, updated_at)
        VALUES ($1, $2, $3, $4, now())
    `
)

func (r *PostgresCityRepository) LoadDataset(ctx context.Context) (ds *types.Dataset, err error) {
	ctx, span := otel.Tracer("CityRepository").Start(ctx, "LoadDataset.Postgres")
	defer span.End()
	defer r.observe(ctx, "load_dataset", time.Now(), &err)

	var metaDoc []byte
	if err = r.pgpool.QueryRow(ctx, selectMetadataQuery).Scan(&metaDoc); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load dataset metadata: %w", err)
	}

	ds = &types.Dataset{}
	if len(metaDoc) > 0 {
		if err = json.Unmarshal(metaDoc, &ds.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode dataset metadata: %w", err)
		}
	}

	rows, err := r.pgpool.Query(ctx, selectCitiesQuery)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc []byte
		if err = rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan city row: %w", err)
		}
		var c types.City
		if err = json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("failed to decode city document %d: %w", len(ds.Cities), err)
		}
		ds.Cities = append(ds.Cities, c)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating city rows: %w", err)
	}

	span.SetAttributes(attribute.Int("cities.count", len(ds.Cities)))
	span.SetStatus(codes.Ok, "dataset loaded")
	return ds, nil
}

// SaveDataset replaces the stored dataset with ds in one transaction.
func (r *PostgresCityRepository) SaveDataset(ctx context.Context, ds *types.Dataset) (err error) {
	ctx, span := otel.Tracer("CityRepository").Start(ctx, "SaveDataset")
	defer span.End()
	defer r.observe(ctx, "save_dataset", time.Now(), &err)

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	metaDoc, err := json.Marshal(ds.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode dataset metadata: %w", err)
	}
	if _, err = tx.Exec(ctx, upsertMetadataQuery, metaDoc); err != nil {
		return fmt.Errorf("failed to save dataset metadata: %w", err)
	}
	if _, err = tx.Exec(ctx, deleteCitiesQuery); err != nil {
		return fmt.Errorf("failed to clear cities: %w", err)
	}

	for i, c := range ds.Cities {
		doc, mErr := json.Marshal(c)
		if mErr != nil {
			err = fmt.Errorf("failed to encode city %s: %w", c.Slug, mErr)
			return err
		}
		if _, err = tx.Exec(ctx, insertCityQuery, c.Slug, i, c.RegionSlug, doc); err != nil {
			return fmt.Errorf("failed to insert city %s: %w", c.Slug, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.InfoContext(ctx, "Dataset saved", slog.Int("cities", len(ds.Cities)))
	return nil
}

func (r *PostgresCityRepository) observe(ctx context.Context, op string, start time.Time, err *error) {
	if r.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", op))
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if *err != nil {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
		r.logger.ErrorContext(ctx, "Database operation failed", slog.String("operation", op), slog.Any("error", *err))
	}
}
