package climate

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// monthlyAggregates groups daily records by calendar month and computes
// mean, sample standard deviation, min, max, and count per output column.
// Values are rounded to two decimals for export parity with the daily data
// researchers feed into health analysis software.
func monthlyAggregates(columns []string, daily []DailyRecord) []MonthlyRecord {
	byMonth := make(map[time.Time]map[string][]float64)

	for _, rec := range daily {
		month := time.Date(rec.Date.Year(), rec.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		cols, ok := byMonth[month]
		if !ok {
			cols = make(map[string][]float64, len(columns))
			byMonth[month] = cols
		}
		for _, col := range columns {
			if v := rec.Values[col]; v != nil {
				cols[col] = append(cols[col], *v)
			}
		}
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	records := make([]MonthlyRecord, 0, len(months))
	for _, m := range months {
		rec := MonthlyRecord{Month: m, Columns: make(map[string]MonthlyStat)}
		for _, col := range columns {
			vals := byMonth[m][col]
			if len(vals) == 0 {
				continue
			}
			std := 0.0
			if len(vals) > 1 {
				std = stat.StdDev(vals, nil)
			}
			rec.Columns[col] = MonthlyStat{
				Mean:  round2(stat.Mean(vals, nil)),
				Std:   round2(std),
				Min:   round2(floats.Min(vals)),
				Max:   round2(floats.Max(vals)),
				Count: len(vals),
			}
		}
		records = append(records, rec)
	}

	return records
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
