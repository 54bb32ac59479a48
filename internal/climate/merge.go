package climate

import (
	"sort"
	"time"
)

// categorySeries is one category's converted, renamed daily series.
type categorySeries struct {
	columns []string
	days    []convertedDay
}

type convertedDay struct {
	date   time.Time
	values []float64 // aligned with columns
}

// convertSeries applies a VariableSpec's conversion to raw source points and
// renames the output. Days where any required band is missing are dropped
// here; cross-category gaps are handled later by the outer join.
func convertSeries(spec VariableSpec, points []SeriesPoint) categorySeries {
	series := categorySeries{columns: spec.Columns}

	for _, p := range points {
		raw := make([]float64, len(spec.Bands))
		complete := true
		for i, band := range spec.Bands {
			v := p.Values[band]
			if v == nil {
				complete = false
				break
			}
			raw[i] = *v
		}
		if !complete {
			continue
		}

		series.days = append(series.days, convertedDay{
			date:   dateOnly(p.Date),
			values: spec.Convert(raw),
		})
	}

	return series
}

// mergeDaily outer-joins per-category series on date. A date present in one
// series but not another yields nil for the absent columns, never a dropped
// row. Duplicate dates within a series resolve last-write-wins. Output is
// sorted ascending by date.
func mergeDaily(columns []string, series []categorySeries) []DailyRecord {
	byDate := make(map[time.Time]map[string]*float64)

	for _, s := range series {
		for _, d := range s.days {
			rec, ok := byDate[d.date]
			if !ok {
				rec = make(map[string]*float64, len(columns))
				byDate[d.date] = rec
			}
			for i, col := range s.columns {
				v := d.values[i]
				rec[col] = &v
			}
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	records := make([]DailyRecord, 0, len(dates))
	for _, d := range dates {
		rec := DailyRecord{Date: d, Values: make(map[string]*float64, len(columns))}
		for _, col := range columns {
			rec.Values[col] = byDate[d][col] // nil for absent columns
		}
		records = append(records, rec)
	}

	return records
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
