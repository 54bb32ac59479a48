package climate

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// summarize computes per-category summary statistics over the columns
// actually present. Accumulation-style variables (precipitation, solar,
// evapotranspiration) report total/mean/max; state variables (temperature,
// dewpoint, pressure) report min/max/mean; wind speed reports mean/max.
func summarize(categories []Category, daily []DailyRecord) Summary {
	summary := make(Summary)

	for _, c := range categories {
		switch c {
		case CategoryTemperature:
			tmax := columnValues(daily, "tmax_celsius")
			mean := columnValues(daily, "tmean_celsius")
			if len(mean) == 0 || len(tmax) == 0 {
				continue
			}
			summary["temperature"] = map[string]float64{
				"min":  floats.Min(mean),
				"max":  floats.Max(tmax),
				"mean": stat.Mean(mean, nil),
			}
		case CategoryHumidity:
			addRangeStats(summary, "dewpoint", columnValues(daily, "dewpoint_celsius"))
		case CategoryPressure:
			addRangeStats(summary, "surface_pressure", columnValues(daily, "surface_pressure_pa"))
		case CategoryPrecipitation:
			addTotalStats(summary, "precipitation", columnValues(daily, "precipitation_mm"))
		case CategoryEvapotranspiration:
			addTotalStats(summary, "evapotranspiration", columnValues(daily, "evapotranspiration_mm"))
		case CategorySolar:
			addTotalStats(summary, "solar_radiation", columnValues(daily, "solar_radiation_jm2"))
		case CategoryWind:
			vals := columnValues(daily, "wind_speed_ms")
			if len(vals) == 0 {
				continue
			}
			summary["wind_speed"] = map[string]float64{
				"mean": stat.Mean(vals, nil),
				"max":  floats.Max(vals),
			}
		}
	}

	return summary
}

func addRangeStats(summary Summary, key string, vals []float64) {
	if len(vals) == 0 {
		return
	}
	summary[key] = map[string]float64{
		"min":  floats.Min(vals),
		"max":  floats.Max(vals),
		"mean": stat.Mean(vals, nil),
	}
}

func addTotalStats(summary Summary, key string, vals []float64) {
	if len(vals) == 0 {
		return
	}
	summary[key] = map[string]float64{
		"total": floats.Sum(vals),
		"mean":  stat.Mean(vals, nil),
		"max":   floats.Max(vals),
	}
}

// columnValues collects the non-missing values of one column in date order.
func columnValues(daily []DailyRecord, column string) []float64 {
	var vals []float64
	for _, rec := range daily {
		if v := rec.Values[column]; v != nil {
			vals = append(vals, *v)
		}
	}
	return vals
}
