package city

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/isitsafe/internal/api"
	"github.com/FACorreiaa/isitsafe/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewCityHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// CitySummary is the list-view shape of a city.
type CitySummary struct {
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Country      string     `json:"country"`
	CountryCode  string     `json:"countryCode"`
	Region       string     `json:"region"`
	RegionSlug   string     `json:"regionSlug"`
	OverallScore float64    `json:"overallScore"`
	Tier         types.Tier `json:"tier"`
	BadgeLabel   string     `json:"badgeLabel"`
	BadgeClass   types.Tier `json:"badgeClass"`
	LastUpdated  string     `json:"lastUpdated"`
	Summary      string     `json:"summary"`
}

type ScoreView struct {
	types.NamedScore
	Tier types.Tier `json:"tier"`
}

type NeighborhoodView struct {
	types.Neighborhood
	Label string `json:"label"`
}

// CityDetail is the full city plus the derived display fields.
type CityDetail struct {
	types.City
	Tier               types.Tier         `json:"tier"`
	LastUpdatedDisplay string             `json:"lastUpdatedDisplay"`
	ScoreBreakdown     []ScoreView        `json:"scoreBreakdown"`
	Neighborhoods      []NeighborhoodView `json:"neighborhoods"`
}

type RegionView struct {
	Name   string        `json:"name"`
	Slug   string        `json:"slug"`
	Count  int           `json:"count"`
	Cities []CitySummary `json:"cities"`
}

func toSummary(c types.City) CitySummary {
	return CitySummary{
		Slug:         c.Slug,
		Name:         c.Name,
		Country:      c.Country,
		CountryCode:  c.CountryCode,
		Region:       c.Region,
		RegionSlug:   c.RegionSlug,
		OverallScore: c.OverallScore,
		Tier:         ScoreTier(c.OverallScore),
		BadgeLabel:   c.BadgeLabel,
		BadgeClass:   c.BadgeClass,
		LastUpdated:  c.LastUpdated,
		Summary:      c.Summary,
	}
}

func toSummaries(cities []types.City) []CitySummary {
	out := make([]CitySummary, len(cities))
	for i, c := range cities {
		out[i] = toSummary(c)
	}
	return out
}

func toDetail(c types.City) CityDetail {
	display, err := FormatDate(c.LastUpdated)
	if err != nil {
		display = c.LastUpdated
	}

	named := c.Scores.Named()
	breakdown := make([]ScoreView, len(named))
	for i, s := range named {
		breakdown[i] = ScoreView{NamedScore: s, Tier: ScoreTier(s.Score)}
	}

	hoods := make([]NeighborhoodView, len(c.Neighborhoods))
	for i, n := range c.Neighborhoods {
		class := n.Class
		if class == "" {
			class = ScoreTier(n.Score)
			n.Class = class
		}
		hoods[i] = NeighborhoodView{Neighborhood: n, Label: class.NeighborhoodLabel()}
	}

	return CityDetail{
		City:               c,
		Tier:               ScoreTier(c.OverallScore),
		LastUpdatedDisplay: display,
		ScoreBreakdown:     breakdown,
		Neighborhoods:      hoods,
	}
}

// ListCities handles GET /cities.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "ListCities")
	defer span.End()

	cities := h.service.ListCities(ctx)
	span.SetAttributes(attribute.Int("cities.count", len(cities)))
	api.WriteJSONResponse(w, r, http.StatusOK, toSummaries(cities))
}

// ListSlugs handles GET /cities/slugs.
func (h *Handler) ListSlugs(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "ListSlugs")
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.ListSlugs(ctx))
}

// GetCity handles GET /cities/{slug}.
func (h *Handler) GetCity(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetCity")
	defer span.End()

	slug := chi.URLParam(r, "slug")
	span.SetAttributes(attribute.String("city.slug", slug))
	c, err := h.service.GetCity(ctx, slug)
	if err != nil {
		h.writeLookupError(w, r, err, slug)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, toDetail(c))
}

// RelatedCities handles GET /cities/{slug}/related.
func (h *Handler) RelatedCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "RelatedCities")
	defer span.End()

	slug := chi.URLParam(r, "slug")
	span.SetAttributes(attribute.String("city.slug", slug))
	related, err := h.service.RelatedCities(ctx, slug)
	if err != nil {
		h.writeLookupError(w, r, err, slug)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, toSummaries(related))
}

// ListRegions handles GET /regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "ListRegions")
	defer span.End()

	groups := h.service.Regions(ctx)
	out := make([]RegionView, len(groups))
	for i, g := range groups {
		out[i] = RegionView{Name: g.Name, Slug: g.Slug, Count: len(g.Cities), Cities: toSummaries(g.Cities)}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, out)
}

// CitiesByRegion handles GET /regions/{regionSlug}/cities. Unknown regions yield an empty list.
func (h *Handler) CitiesByRegion(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "CitiesByRegion")
	defer span.End()

	regionSlug := chi.URLParam(r, "regionSlug")
	span.SetAttributes(attribute.String("region.slug", regionSlug))
	api.WriteJSONResponse(w, r, http.StatusOK, toSummaries(h.service.CitiesByRegion(ctx, regionSlug)))
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "Stats")
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Stats(ctx))
}

// Rankings handles GET /rankings.
func (h *Handler) Rankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "Rankings")
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Rankings(ctx))
}

// StaleCities handles GET /stale.
func (h *Handler) StaleCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "StaleCities")
	defer span.End()

	stale := h.service.StaleCities(ctx)
	span.SetAttributes(attribute.Int("cities.count", len(stale)))
	api.WriteJSONResponse(w, r, http.StatusOK, toSummaries(stale))
}

// Metadata handles GET /metadata.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "Metadata")
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Metadata(ctx))
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error, slug string) {
	if errors.Is(err, ErrCityNotFound) {
		api.ErrorResponse(w, r, http.StatusNotFound, "city not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "City lookup failed", slog.String("slug", slug), slog.Any("error", err))
	api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to look up city")
}
