package types

import "encoding/json"

// Tier is the safety band a score falls into.
type Tier string

const (
	TierSafe    Tier = "safe"
	TierCaution Tier = "caution"
	TierDanger  Tier = "danger"
)

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierSafe, TierCaution, TierDanger:
		return true
	}
	return false
}

// NeighborhoodLabel is the short label shown next to a neighborhood rating.
func (t Tier) NeighborhoodLabel() string {
	switch t {
	case TierSafe:
		return "SAFE"
	case TierCaution:
		return "CAUTION"
	case TierDanger:
		return "AVOID"
	}
	return ""
}

// RiskLevel grades how likely a traveler is to run into a scam.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// CityScores is the seven-category breakdown behind the overall score. Each is 0-10.
type CityScores struct {
	PettyCrime     float64 `json:"pettyCrime"`
	ViolentCrime   float64 `json:"violentCrime"`
	ScamRisk       float64 `json:"scamRisk"`
	WomensSafety   float64 `json:"womensSafety"`
	NightSafety    float64 `json:"nightSafety"`
	Transport      float64 `json:"transport"`
	NaturalHazards float64 `json:"naturalHazards"`
}

// Named returns the sub-scores keyed by their JSON names, in display order.
func (s CityScores) Named() []NamedScore {
	return []NamedScore{
		{Key: "pettyCrime", Label: "Petty Crime", Score: s.PettyCrime},
		{Key: "violentCrime", Label: "Violent Crime", Score: s.ViolentCrime},
		{Key: "scamRisk", Label: "Scam Risk", Score: s.ScamRisk},
		{Key: "womensSafety", Label: "Women's Safety", Score: s.WomensSafety},
		{Key: "nightSafety", Label: "Night Safety", Score: s.NightSafety},
		{Key: "transport", Label: "Transport", Score: s.Transport},
		{Key: "naturalHazards", Label: "Natural Hazards", Score: s.NaturalHazards},
	}
}

type NamedScore struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Neighborhood struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Class       Tier    `json:"class"`
	Description string  `json:"description"`
}

type Scam struct {
	Name        string    `json:"name"`
	Risk        RiskLevel `json:"risk"`
	Description string    `json:"description"`
	HowToAvoid  string    `json:"howToAvoid"`
}

// SafetyAdvice is an overview paragraph plus bullet tips.
type SafetyAdvice struct {
	Overview string   `json:"overview"`
	Tips     []string `json:"tips"`
}

type TransportAdvice struct {
	Metro     string `json:"metro"`
	Rideshare string `json:"rideshare"`
	Taxis     string `json:"taxis"`
	Tips      string `json:"tips"`
}

type HealthAdvice struct {
	Overview     string `json:"overview"`
	Water        string `json:"water"`
	Vaccinations string `json:"vaccinations"`
	Altitude     string `json:"altitude"`
}

type EmergencyContacts struct {
	General       string `json:"general"`
	Police        string `json:"police"`
	Ambulance     string `json:"ambulance"`
	Fire          string `json:"fire"`
	TouristPolice string `json:"touristPolice"`
	USEmbassy     string `json:"usEmbassy"`
}

type FAQ struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// City is one record of the static dataset. Slug is its only identifier.
type City struct {
	Slug          string            `json:"slug"`
	Name          string            `json:"name"`
	Country       string            `json:"country"`
	CountryCode   string            `json:"countryCode"`
	Region        string            `json:"region"`
	RegionSlug    string            `json:"regionSlug"`
	LastUpdated   string            `json:"lastUpdated"`
	OverallScore  float64           `json:"overallScore"`
	Verdict       string            `json:"verdict"`
	BadgeLabel    string            `json:"badgeLabel"`
	BadgeClass    Tier              `json:"badgeClass"`
	Scores        CityScores        `json:"scores"`
	Summary       string            `json:"summary"`
	QuickVerdict  string            `json:"quickVerdict"`
	Neighborhoods []Neighborhood    `json:"neighborhoods"`
	Scams         []Scam            `json:"scams"`
	SoloFemale    SafetyAdvice      `json:"soloFemale"`
	NightSafety   SafetyAdvice      `json:"nightSafety"`
	Transport     TransportAdvice   `json:"transport"`
	Customs       []string          `json:"customs"`
	Health        HealthAdvice      `json:"health"`
	Emergency     EmergencyContacts `json:"emergency"`
	FAQ           []FAQ             `json:"faq"`
	RelatedCities []string          `json:"relatedCities"`
}

// DatasetMetadata is the dataset's `metadata` object. Known keys are decoded;
// the full object is kept in Raw.
type DatasetMetadata struct {
	Version     string          `json:"version,omitempty"`
	GeneratedAt string          `json:"generatedAt,omitempty"`
	TotalCities int             `json:"totalCities,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

func (m *DatasetMetadata) UnmarshalJSON(b []byte) error {
	type plain DatasetMetadata
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = DatasetMetadata(p)
	m.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (m DatasetMetadata) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type plain DatasetMetadata
	return json.Marshal(plain(m))
}

// Dataset is the static source file: a metadata object and the city array.
type Dataset struct {
	Metadata DatasetMetadata `json:"metadata"`
	Cities   []City          `json:"cities"`
}

// RegionGroup is the cities of one region, sorted by name.
type RegionGroup struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Cities []City `json:"cities"`
}

// RankedCity is a city's position in the overall-score ranking.
type RankedCity struct {
	Rank         int     `json:"rank"`
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	OverallScore float64 `json:"overallScore"`
	Tier         Tier    `json:"tier"`
}

type CatalogStats struct {
	Cities    int `json:"cities"`
	Countries int `json:"countries"`
	Regions   int `json:"regions"`
	Scams     int `json:"scams"`
}
