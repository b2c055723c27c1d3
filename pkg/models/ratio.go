package models

// RatioValue is a single computed financial ratio.
type RatioValue struct {
	Value float64 `json:"value"`
	Name  string  `json:"name"` // Korean display name, e.g. "ROE (자기자본이익률)"
	Unit  string  `json:"unit"` // "%" or "회"
}

// RatioSet groups ratios by analysis category. Ratios whose inputs were
// missing from the statements are simply absent from the maps.
type RatioSet struct {
	Profitability map[string]RatioValue `json:"profitability"`
	Stability     map[string]RatioValue `json:"stability"`
	Growth        map[string]RatioValue `json:"growth"`
	Activity      map[string]RatioValue `json:"activity"`
}

// NewRatioSet returns a RatioSet with all category maps allocated.
func NewRatioSet() RatioSet {
	return RatioSet{
		Profitability: make(map[string]RatioValue),
		Stability:     make(map[string]RatioValue),
		Growth:        make(map[string]RatioValue),
		Activity:      make(map[string]RatioValue),
	}
}

// Category returns the named category map, or nil for an unknown name.
func (r RatioSet) Category(name string) map[string]RatioValue {
	switch name {
	case "profitability":
		return r.Profitability
	case "stability":
		return r.Stability
	case "growth":
		return r.Growth
	case "activity":
		return r.Activity
	default:
		return nil
	}
}

// RatioTrend is the year-by-year series of one ratio, for charting.
type RatioTrend struct {
	Years  []int       `json:"years"`
	Values []float64   `json:"values"`
	Info   *RatioValue `json:"ratio_info,omitempty"`
}

// SeriesPoint is one year of an account-level trend (revenue, net income).
type SeriesPoint struct {
	Year   int   `json:"year"`
	Amount int64 `json:"amount"`
}
