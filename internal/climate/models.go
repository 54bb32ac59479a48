package climate

import (
	"encoding/json"
	"strings"
	"time"
)

// Category represents a supported climate variable grouping.
type Category string

const (
	CategoryTemperature        Category = "temperature"
	CategoryPrecipitation      Category = "precipitation"
	CategoryHumidity           Category = "humidity"
	CategoryWind               Category = "wind"
	CategorySolar              Category = "solar"
	CategoryPressure           Category = "pressure"
	CategoryEvapotranspiration Category = "evapotranspiration"
)

// AllCategories lists every supported category in canonical order.
var AllCategories = []Category{
	CategoryTemperature,
	CategoryPrecipitation,
	CategoryHumidity,
	CategoryWind,
	CategorySolar,
	CategoryPressure,
	CategoryEvapotranspiration,
}

// DateFormat is the calendar date layout used throughout the service.
const DateFormat = "2006-01-02"

// Location represents a named point for which climate data is extracted.
type Location struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores
// and for building export filenames.
func (l Location) Key() string {
	k := strings.ToLower(strings.TrimSpace(l.Name))
	k = strings.ReplaceAll(k, ",", "")
	return strings.ReplaceAll(k, " ", "_")
}

// Request describes one extraction: a point, a buffered region around it,
// an inclusive date range, and the requested variable categories.
type Request struct {
	Location   Location
	Start      time.Time // UTC midnight
	End        time.Time // UTC midnight, inclusive
	BufferKm   float64
	Categories []Category
}

// DailyRecord is one calendar day's merged set of requested variable values.
// A nil value marks a column that is missing for that day: the date appeared
// in another category's series but not in this column's.
type DailyRecord struct {
	Date   time.Time
	Values map[string]*float64
}

// MarshalJSON emits the record as a flat object with a "date" field and one
// field per output column; missing values serialize as explicit nulls.
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Values)+1)
	m["date"] = r.Date.Format(DateFormat)
	for col, v := range r.Values {
		if v == nil {
			m[col] = nil
		} else {
			m[col] = *v
		}
	}
	return json.Marshal(m)
}

// Summary holds per-category summary statistics keyed by a category label
// (e.g. "temperature" -> {"min": ..., "max": ..., "mean": ...}).
type Summary map[string]map[string]float64

// MonthlyStat aggregates one output column over one calendar month.
type MonthlyStat struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// MonthlyRecord holds per-column aggregates for one calendar month.
type MonthlyRecord struct {
	Month   time.Time              `json:"-"`
	Columns map[string]MonthlyStat `json:"columns"`
}

// MarshalJSON renders the month as "YYYY-MM" alongside the column aggregates.
func (m MonthlyRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month   string                 `json:"month"`
		Columns map[string]MonthlyStat `json:"columns"`
	}{
		Month:   m.Month.Format("2006-01"),
		Columns: m.Columns,
	})
}

// Result is the outcome of one extraction: daily records sorted ascending by
// date with no duplicates, the ordered union of output columns, summary
// statistics over the columns actually present, and monthly aggregates.
type Result struct {
	Location Location        `json:"location"`
	Start    time.Time       `json:"-"`
	End      time.Time       `json:"-"`
	Columns  []string        `json:"columns"`
	Daily    []DailyRecord   `json:"daily"`
	Summary  Summary         `json:"summary_statistics"`
	Monthly  []MonthlyRecord `json:"monthly,omitempty"`
}
