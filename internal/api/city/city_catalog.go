package city

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/isitsafe/internal/types"
)

// ErrInvalidDataset wraps every invariant violation found while building a Catalog.
var ErrInvalidDataset = errors.New("invalid city dataset")

// RegionOrder is the order region groups are listed in. Regions not named here
// follow in order of first appearance.
var RegionOrder = []string{
	"South America",
	"Central America & Caribbean",
	"North America",
	"Southeast Asia",
	"Africa",
	"Europe",
	"Middle East",
	"South Asia",
}

// Catalog is the immutable in-memory city table. It is built once from a
// Dataset and only read afterwards, so it is safe for concurrent use.
// Returned cities share nested slices with the catalog; callers must not modify them.
type Catalog struct {
	metadata types.DatasetMetadata
	cities   []types.City
	bySlug   map[string]int
}

// NewCatalog validates ds and indexes it by slug.
func NewCatalog(ds *types.Dataset) (*Catalog, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidDataset)
	}

	c := &Catalog{
		metadata: ds.Metadata,
		cities:   slices.Clone(ds.Cities),
		bySlug:   make(map[string]int, len(ds.Cities)),
	}
	for i, city := range c.cities {
		if err := validateCity(city); err != nil {
			return nil, fmt.Errorf("%w: city %d: %w", ErrInvalidDataset, i, err)
		}
		if prev, dup := c.bySlug[city.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate slug %q at %d and %d", ErrInvalidDataset, city.Slug, prev, i)
		}
		c.bySlug[city.Slug] = i
	}
	return c, nil
}

func validateCity(c types.City) error {
	if c.Slug == "" {
		return errors.New("empty slug")
	}
	if err := checkScore("overallScore", c.OverallScore); err != nil {
		return fmt.Errorf("%s: %w", c.Slug, err)
	}
	for _, s := range c.Scores.Named() {
		if err := checkScore("scores."+s.Key, s.Score); err != nil {
			return fmt.Errorf("%s: %w", c.Slug, err)
		}
	}
	if c.BadgeClass != "" && !c.BadgeClass.Valid() {
		return fmt.Errorf("%s: unknown badgeClass %q", c.Slug, c.BadgeClass)
	}
	for _, n := range c.Neighborhoods {
		if err := checkScore("neighborhood "+n.Name, n.Score); err != nil {
			return fmt.Errorf("%s: %w", c.Slug, err)
		}
		if n.Class != "" && !n.Class.Valid() {
			return fmt.Errorf("%s: neighborhood %s: unknown class %q", c.Slug, n.Name, n.Class)
		}
	}
	for _, s := range c.Scams {
		if !s.Risk.Valid() {
			return fmt.Errorf("%s: scam %s: unknown risk %q", c.Slug, s.Name, s.Risk)
		}
	}
	return nil
}

func checkScore(field string, v float64) error {
	if v < 0 || v > 10 {
		return fmt.Errorf("%s out of range [0,10]: %v", field, v)
	}
	return nil
}

func (c *Catalog) Metadata() types.DatasetMetadata {
	return c.metadata
}

func (c *Catalog) Len() int {
	return len(c.cities)
}

// AllCities returns every city in load order.
func (c *Catalog) AllCities() []types.City {
	return slices.Clone(c.cities)
}

// CityBySlug returns the city with the given slug. The bool is false when no city matches.
func (c *Catalog) CityBySlug(slug string) (types.City, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return types.City{}, false
	}
	return c.cities[i], true
}

// AllSlugs returns the slugs in load order.
func (c *Catalog) AllSlugs() []string {
	slugs := make([]string, len(c.cities))
	for i, city := range c.cities {
		slugs[i] = city.Slug
	}
	return slugs
}

// CitiesByRegion returns the cities whose RegionSlug equals regionSlug, in load order.
func (c *Catalog) CitiesByRegion(regionSlug string) []types.City {
	out := []types.City{}
	for _, city := range c.cities {
		if city.RegionSlug == regionSlug {
			out = append(out, city)
		}
	}
	return out
}

// RelatedCities resolves city.RelatedCities in order. Slugs with no match are skipped.
func (c *Catalog) RelatedCities(city types.City) []types.City {
	out := make([]types.City, 0, len(city.RelatedCities))
	for _, slug := range city.RelatedCities {
		if related, ok := c.CityBySlug(slug); ok {
			out = append(out, related)
		}
	}
	return out
}

// Regions groups cities by region name. Groups follow RegionOrder, then first
// appearance; cities inside a group are sorted by name with English collation.
func (c *Catalog) Regions() []types.RegionGroup {
	index := map[string]int{}
	var groups []types.RegionGroup
	for _, city := range c.cities {
		i, ok := index[city.Region]
		if !ok {
			i = len(groups)
			index[city.Region] = i
			groups = append(groups, types.RegionGroup{Name: city.Region, Slug: city.RegionSlug})
		}
		groups[i].Cities = append(groups[i].Cities, city)
	}

	rank := func(name string) int {
		if r := slices.Index(RegionOrder, name); r >= 0 {
			return r
		}
		return len(RegionOrder)
	}
	slices.SortStableFunc(groups, func(a, b types.RegionGroup) int {
		return rank(a.Name) - rank(b.Name)
	})

	// collate.Collator keeps scratch buffers; one per call.
	col := collate.New(language.English)
	for _, g := range groups {
		slices.SortStableFunc(g.Cities, func(a, b types.City) int {
			return col.CompareString(a.Name, b.Name)
		})
	}
	return groups
}

// Stats summarizes the catalog for the site's headline numbers.
func (c *Catalog) Stats() types.CatalogStats {
	countries := map[string]struct{}{}
	regions := map[string]struct{}{}
	stats := types.CatalogStats{Cities: len(c.cities)}
	for _, city := range c.cities {
		countries[city.Country] = struct{}{}
		regions[city.Region] = struct{}{}
		stats.Scams += len(city.Scams)
	}
	stats.Countries = len(countries)
	stats.Regions = len(regions)
	return stats
}

// Rankings orders cities by overall score, highest first. Ties keep load order.
func (c *Catalog) Rankings() []types.RankedCity {
	sorted := slices.Clone(c.cities)
	slices.SortStableFunc(sorted, func(a, b types.City) int {
		switch {
		case a.OverallScore > b.OverallScore:
			return -1
		case a.OverallScore < b.OverallScore:
			return 1
		}
		return 0
	})

	ranked := make([]types.RankedCity, len(sorted))
	for i, city := range sorted {
		ranked[i] = types.RankedCity{
			Rank:         i + 1,
			Slug:         city.Slug,
			Name:         city.Name,
			Country:      city.Country,
			OverallScore: city.OverallScore,
			Tier:         ScoreTier(city.OverallScore),
		}
	}
	return ranked
}

// StaleCities returns cities last updated more than maxAge before now, oldest
// first. A lastUpdated that does not parse counts as stale and sorts first.
func (c *Catalog) StaleCities(now time.Time, maxAge time.Duration) []types.City {
	type dated struct {
		city types.City
		at   time.Time
	}
	cutoff := now.Add(-maxAge)

	var stale []dated
	for _, city := range c.cities {
		at, err := ParseDate(city.LastUpdated, now.Location())
		if err != nil {
			stale = append(stale, dated{city: city})
			continue
		}
		if at.Before(cutoff) {
			stale = append(stale, dated{city: city, at: at})
		}
	}
	slices.SortStableFunc(stale, func(a, b dated) int {
		return a.at.Compare(b.at)
	})

	out := make([]types.City, len(stale))
	for i, d := range stale {
		out[i] = d.city
	}
	return out
}
