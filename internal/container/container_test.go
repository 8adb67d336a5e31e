package container

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/FACorreiaa/isitsafe/app/observability/metrics"
	"github.com/FACorreiaa/isitsafe/config"
)

func testConfig(path string) *config.Config {
	var cfg config.Config
	cfg.Dataset.Source = config.DatasetSourceFile
	cfg.Dataset.Path = path
	cfg.Dataset.StaleAfterDays = 30
	return &cfg
}

func TestNewContainer_FileSource(t *testing.T) {
	m, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewContainer(context.Background(), testConfig("../../data/city-data.json"), m, logger)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Pool)
	assert.Positive(t, c.Catalog.Len())
	assert.NotNil(t, c.CityHandler)

	slugs := c.CityService.ListSlugs(context.Background())
	assert.Len(t, slugs, c.Catalog.Len())
}

func TestNewContainer_MissingFile(t *testing.T) {
	m, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err = NewContainer(context.Background(), testConfig("does-not-exist.json"), m, logger)
	assert.Error(t, err)
}

func TestNewContainer_UnknownSource(t *testing.T) {
	cfg := testConfig("")
	cfg.Dataset.Source = "s3"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewContainer(context.Background(), cfg, nil, logger)
	assert.ErrorContains(t, err, "unknown dataset source")
}
