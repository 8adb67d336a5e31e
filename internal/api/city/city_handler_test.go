package city

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/FACorreiaa/isitsafe/internal/types"
)

func newTestRouter(t *testing.T, service Service) http.Handler {
	t.Helper()
	h := NewCityHandler(service, discardLogger())

	r := chi.NewRouter()
	r.Get("/metadata", h.Metadata)
	r.Get("/stats", h.Stats)
	r.Get("/rankings", h.Rankings)
	r.Get("/stale", h.StaleCities)
	r.Get("/cities", h.ListCities)
	r.Get("/cities/slugs", h.ListSlugs)
	r.Get("/cities/{slug}", h.GetCity)
	r.Get("/cities/{slug}/related", h.RelatedCities)
	r.Get("/regions", h.ListRegions)
	r.Get("/regions/{regionSlug}/cities", h.CitiesByRegion)
	return r
}

func doGet(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr
}

func TestHandler_GetCity(t *testing.T) {
	service, _ := setupCityServiceTest(t)
	h := newTestRouter(t, service)

	t.Run("detail view", func(t *testing.T) {
		var got CityDetail
		rr := doGet(t, h, "/cities/medellin", &got)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Equal(t, "medellin", got.Slug)
		assert.Equal(t, types.TierCaution, got.Tier)
		assert.Equal(t, "February 15, 2026", got.LastUpdatedDisplay)
		assert.Equal(t, "2026-02-15", got.LastUpdated)

		require.Len(t, got.ScoreBreakdown, 7)
		assert.Equal(t, "pettyCrime", got.ScoreBreakdown[0].Key)
		assert.Equal(t, types.TierCaution, got.ScoreBreakdown[0].Tier)

		require.Len(t, got.Neighborhoods, 2)
		assert.Equal(t, "SAFE", got.Neighborhoods[0].Label)
		assert.Equal(t, "AVOID", got.Neighborhoods[1].Label)
	})

	t.Run("unparseable date falls back to the raw value", func(t *testing.T) {
		var got CityDetail
		rr := doGet(t, h, "/cities/avila", &got)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "not-a-date", got.LastUpdatedDisplay)
		assert.Equal(t, types.TierSafe, got.Tier)
	})

	t.Run("unknown slug", func(t *testing.T) {
		var body map[string]any
		rr := doGet(t, h, "/cities/atlantis", &body)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "city not found", body["error"])
	})
}

type failingService struct {
	Service
}

func (failingService) GetCity(context.Context, string) (types.City, error) {
	return types.City{}, errors.New("catalog unavailable")
}

func TestHandler_GetCity_InternalError(t *testing.T) {
	h := newTestRouter(t, failingService{})

	var body map[string]any
	rr := doGet(t, h, "/cities/medellin", &body)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "failed to look up city", body["error"])
}

func TestHandler_Listings(t *testing.T) {
	service, _ := setupCityServiceTest(t)
	h := newTestRouter(t, service)

	t.Run("cities", func(t *testing.T) {
		var got []CitySummary
		rr := doGet(t, h, "/cities", &got)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, got, 8)
		assert.Equal(t, "medellin", got[0].Slug)
		assert.Equal(t, types.TierCaution, got[0].Tier)
		assert.Equal(t, types.TierDanger, got[6].Tier)
	})

	t.Run("slugs", func(t *testing.T) {
		var got []string
		doGet(t, h, "/cities/slugs", &got)
		assert.Equal(t, service.ListSlugs(context.Background()), got)
	})

	t.Run("related", func(t *testing.T) {
		var got []CitySummary
		doGet(t, h, "/cities/medellin/related", &got)
		require.Len(t, got, 2)
		assert.Equal(t, "cartagena", got[0].Slug)
		assert.Equal(t, "mexico-city", got[1].Slug)
	})

	t.Run("related for unknown slug", func(t *testing.T) {
		rr := doGet(t, h, "/cities/atlantis/related", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("regions", func(t *testing.T) {
		var got []RegionView
		doGet(t, h, "/regions", &got)
		require.Len(t, got, 5)
		assert.Equal(t, "South America", got[0].Name)
		assert.Equal(t, 2, got[0].Count)
		assert.Equal(t, "cartagena", got[0].Cities[0].Slug)
	})

	t.Run("cities by region", func(t *testing.T) {
		var got []CitySummary
		doGet(t, h, "/regions/europe/cities", &got)
		require.Len(t, got, 3)
		assert.Equal(t, "istanbul", got[0].Slug)
	})

	t.Run("unknown region is an empty list", func(t *testing.T) {
		rr := doGet(t, h, "/regions/atlantis/cities", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("stats", func(t *testing.T) {
		var got types.CatalogStats
		doGet(t, h, "/stats", &got)
		assert.Equal(t, types.CatalogStats{Cities: 8, Countries: 7, Regions: 5, Scams: 3}, got)
	})

	t.Run("rankings", func(t *testing.T) {
		var got []types.RankedCity
		doGet(t, h, "/rankings", &got)
		require.Len(t, got, 8)
		assert.Equal(t, 1, got[0].Rank)
		assert.Equal(t, "reykjavik", got[0].Slug)
	})

	t.Run("stale", func(t *testing.T) {
		var got []CitySummary
		doGet(t, h, "/stale", &got)
		require.Len(t, got, 4)
		assert.Equal(t, "avila", got[0].Slug)
	})

	t.Run("metadata", func(t *testing.T) {
		var got map[string]any
		doGet(t, h, "/metadata", &got)
		assert.Equal(t, "test", got["version"])
	})
}

func TestHandler_Spans(t *testing.T) {
	service, _ := setupCityServiceTest(t)
	h := newTestRouter(t, service)

	tests := []struct {
		path        string
		handlerSpan string
		serviceSpan string
	}{
		{"/cities", "ListCities", "ListCities"},
		{"/cities/slugs", "ListSlugs", "ListSlugs"},
		{"/cities/medellin", "GetCity", "GetCity"},
		{"/cities/medellin/related", "RelatedCities", "RelatedCities"},
		{"/regions", "ListRegions", "Regions"},
		{"/regions/europe/cities", "CitiesByRegion", "CitiesByRegion"},
		{"/stats", "Stats", "Stats"},
		{"/rankings", "Rankings", "Rankings"},
		{"/stale", "StaleCities", "StaleCities"},
		{"/metadata", "Metadata", "Metadata"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := recordSpans(t)
			rr := doGet(t, h, tt.path, nil)
			require.Equal(t, http.StatusOK, rr.Code)

			var handlerSpan, serviceSpan sdktrace.ReadOnlySpan
			for _, s := range rec.Ended() {
				switch s.InstrumentationScope().Name {
				case "CityHandler":
					handlerSpan = s
				case "CityService":
					serviceSpan = s
				}
			}
			require.NotNil(t, handlerSpan, "handler span")
			require.NotNil(t, serviceSpan, "service span")
			assert.Equal(t, tt.handlerSpan, handlerSpan.Name())
			assert.Equal(t, tt.serviceSpan, serviceSpan.Name())
			// The service span hangs off the handler span.
			assert.Equal(t, handlerSpan.SpanContext().SpanID(), serviceSpan.Parent().SpanID())
		})
	}
}
