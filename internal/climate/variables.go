package climate

import (
	"fmt"
	"math"
	"strings"
)

// VariableSpec maps one category to the ERA5-Land bands it requests, the
// conversion applied to raw band values, and the output column names.
// The table is static process-wide configuration.
type VariableSpec struct {
	Category Category

	// Bands are the raw ERA5-Land band names requested from the source.
	Bands []string

	// Columns are the renamed output columns, same length as the slice
	// returned by Convert.
	Columns []string

	// Convert maps one day's raw band values (aligned with Bands) to output
	// column values (aligned with Columns). Pure and deterministic.
	Convert func(bands []float64) []float64
}

func kelvinToCelsius(v float64) float64 { return v - 273.15 }

func metersToMillimeters(v float64) float64 { return v * 1000 }

var variableSpecs = map[Category]VariableSpec{
	CategoryTemperature: {
		Category: CategoryTemperature,
		Bands:    []string{"temperature_2m_max", "temperature_2m"},
		Columns:  []string{"tmax_celsius", "tmean_celsius"},
		Convert: func(b []float64) []float64 {
			return []float64{kelvinToCelsius(b[0]), kelvinToCelsius(b[1])}
		},
	},
	CategoryPrecipitation: {
		Category: CategoryPrecipitation,
		Bands:    []string{"total_precipitation_sum"},
		Columns:  []string{"precipitation_mm"},
		Convert: func(b []float64) []float64 {
			return []float64{metersToMillimeters(b[0])}
		},
	},
	CategoryHumidity: {
		Category: CategoryHumidity,
		Bands:    []string{"dewpoint_temperature_2m"},
		Columns:  []string{"dewpoint_celsius"},
		Convert: func(b []float64) []float64 {
			return []float64{kelvinToCelsius(b[0])}
		},
	},
	CategoryWind: {
		Category: CategoryWind,
		Bands:    []string{"u_component_of_wind_10m", "v_component_of_wind_10m"},
		Columns:  []string{"wind_speed_ms", "wind_u_ms", "wind_v_ms"},
		// Speed is derived as the vector magnitude; the raw u/v components
		// pass through unconverted.
		Convert: func(b []float64) []float64 {
			return []float64{math.Hypot(b[0], b[1]), b[0], b[1]}
		},
	},
	CategorySolar: {
		Category: CategorySolar,
		Bands:    []string{"surface_solar_radiation_downwards_sum"},
		Columns:  []string{"solar_radiation_jm2"},
		Convert: func(b []float64) []float64 {
			return []float64{b[0]}
		},
	},
	CategoryPressure: {
		Category: CategoryPressure,
		Bands:    []string{"surface_pressure"},
		Columns:  []string{"surface_pressure_pa"},
		Convert: func(b []float64) []float64 {
			return []float64{b[0]}
		},
	},
	CategoryEvapotranspiration: {
		Category: CategoryEvapotranspiration,
		Bands:    []string{"potential_evaporation_sum"},
		Columns:  []string{"evapotranspiration_mm"},
		// ERA5-Land encodes evaporative flux direction in the sign; the
		// exported magnitude discards it.
		Convert: func(b []float64) []float64 {
			return []float64{metersToMillimeters(math.Abs(b[0]))}
		},
	},
}

// SpecFor returns the VariableSpec for a category.
func SpecFor(c Category) (VariableSpec, bool) {
	spec, ok := variableSpecs[c]
	return spec, ok
}

// ParseCategory validates a single category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := variableSpecs[c]; !ok {
		return "", fmt.Errorf("%w: unknown variable category %q", ErrInvalidArgument, s)
	}
	return c, nil
}

// ParseCategories validates a list of category strings, deduplicating while
// preserving first-occurrence order. An empty list is rejected.
func ParseCategories(names []string) ([]Category, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one variable category is required", ErrInvalidArgument)
	}

	seen := make(map[Category]bool, len(names))
	out := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// ColumnsFor returns the ordered union of output columns across categories,
// in category order then column order within each category.
func ColumnsFor(categories []Category) []string {
	var cols []string
	for _, c := range categories {
		if spec, ok := variableSpecs[c]; ok {
			cols = append(cols, spec.Columns...)
		}
	}
	return cols
}
