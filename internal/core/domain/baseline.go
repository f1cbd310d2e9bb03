package domain

// CountryBaseline holds the reference life expectancy in years for one country
type CountryBaseline struct {
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
}

// Fallback constants used when the country is unknown
const (
	// RuleFallbackYears is the global baseline for the rule strategy
	RuleFallbackYears = 78.0
	// RuleFemaleFallbackBonus is added for females only when the rule
	// strategy falls back to the global constant
	RuleFemaleFallbackBonus = 4.0
	// WHOFallbackYears is the flat ceiling used by the WHO strategy when the
	// country is unknown (no sex adjustment, preserved asymmetry)
	WHOFallbackYears = 100.0
)

// countryBaselines is the static reference table, built once at init and
// never mutated. Keys are display country names as submitted by the form.
var countryBaselines = map[string]CountryBaseline{
	"Afghanistan":    {Male: 63.3, Female: 66.0},
	"Argentina":      {Male: 73.5, Female: 79.5},
	"Australia":      {Male: 81.2, Female: 85.3},
	"Austria":        {Male: 79.4, Female: 84.2},
	"Bangladesh":     {Male: 71.1, Female: 74.4},
	"Belgium":        {Male: 79.3, Female: 84.0},
	"Brazil":         {Male: 72.8, Female: 79.9},
	"Canada":         {Male: 80.4, Female: 84.1},
	"Chile":          {Male: 78.1, Female: 83.2},
	"China":          {Male: 74.7, Female: 80.5},
	"Colombia":       {Male: 74.3, Female: 80.0},
	"Denmark":        {Male: 79.6, Female: 83.4},
	"Egypt":          {Male: 69.6, Female: 74.1},
	"Ethiopia":       {Male: 64.9, Female: 68.4},
	"Finland":        {Male: 79.2, Female: 84.6},
	"France":         {Male: 79.8, Female: 85.7},
	"Germany":        {Male: 78.7, Female: 83.5},
	"Greece":         {Male: 78.9, Female: 83.9},
	"India":          {Male: 69.5, Female: 72.2},
	"Indonesia":      {Male: 69.8, Female: 74.0},
	"Iran":           {Male: 75.7, Female: 78.7},
	"Ireland":        {Male: 80.5, Female: 84.1},
	"Israel":         {Male: 80.8, Female: 84.6},
	"Italy":          {Male: 81.1, Female: 85.4},
	"Japan":          {Male: 81.6, Female: 87.7},
	"Kenya":          {Male: 64.0, Female: 68.9},
	"Mexico":         {Male: 72.2, Female: 78.0},
	"Netherlands":    {Male: 80.4, Female: 83.7},
	"New Zealand":    {Male: 80.6, Female: 84.1},
	"Nigeria":        {Male: 53.5, Female: 55.7},
	"Norway":         {Male: 81.1, Female: 84.7},
	"Pakistan":       {Male: 66.3, Female: 68.7},
	"Philippines":    {Male: 67.3, Female: 75.0},
	"Poland":         {Male: 74.1, Female: 81.8},
	"Portugal":       {Male: 78.6, Female: 84.4},
	"Russia":         {Male: 68.2, Female: 78.2},
	"South Africa":   {Male: 61.5, Female: 67.7},
	"South Korea":    {Male: 80.3, Female: 86.1},
	"Spain":          {Male: 80.7, Female: 86.2},
	"Sweden":         {Male: 80.8, Female: 84.3},
	"Switzerland":    {Male: 81.8, Female: 85.6},
	"Thailand":       {Male: 73.5, Female: 80.7},
	"Turkey":         {Male: 75.6, Female: 81.0},
	"Ukraine":        {Male: 66.9, Female: 76.8},
	"United Kingdom": {Male: 79.4, Female: 83.1},
	"United States":  {Male: 76.3, Female: 81.4},
	"Vietnam":        {Male: 71.0, Female: 79.6},
}

// BaselineTable is an immutable country -> expectancy lookup.
// The zero-config table is the embedded reference data; an alternative table
// may be loaded from an external source at startup.
type BaselineTable struct {
	entries map[string]CountryBaseline
}

// DefaultBaselines returns the embedded reference table
func DefaultBaselines() *BaselineTable {
	return &BaselineTable{entries: countryBaselines}
}

// NewBaselineTable builds a table from externally loaded rows.
// The map is copied so later mutation of the argument cannot leak in.
func NewBaselineTable(rows map[string]CountryBaseline) *BaselineTable {
	entries := make(map[string]CountryBaseline, len(rows))
	for country, b := range rows {
		entries[country] = b
	}
	return &BaselineTable{entries: entries}
}

// Lookup returns the baseline for a country, ok=false when unknown.
// An unknown country is not an error: each strategy defines its own fallback.
func (t *BaselineTable) Lookup(country string) (CountryBaseline, bool) {
	b, ok := t.entries[country]
	return b, ok
}

// ForSex selects the per-sex expectancy. Non-male profiles use the female
// column, matching the grouping used by the smoking adjustment.
func (b CountryBaseline) ForSex(sex Sex) float64 {
	if sex == SexMale {
		return b.Male
	}
	return b.Female
}

// Len returns the number of countries in the table
func (t *BaselineTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table rows
func (t *BaselineTable) Entries() map[string]CountryBaseline {
	out := make(map[string]CountryBaseline, len(t.entries))
	for country, b := range t.entries {
		out[country] = b
	}
	return out
}
