// Package export serializes extraction results to delimited text and
// spreadsheet files for downstream health analysis software.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/climhealth/climate-extraction/internal/climate"
)

// DataSourceLabel appears in exported metadata.
const DataSourceLabel = "ERA5-Land (ECMWF)"

// WriteDailyCSV writes one row per daily record: date first, then the result
// columns in order. Missing values become empty cells.
func WriteDailyCSV(w io.Writer, res climate.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"date"}, res.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range res.Daily {
		row[0] = rec.Date.Format(climate.DateFormat)
		for i, col := range res.Columns {
			row[i+1] = formatCell(rec.Values[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMonthlyCSV writes monthly column means, one row per month, with
// avg_<column> headers.
func WriteMonthlyCSV(w io.Writer, res climate.Result) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(res.Columns)+1)
	header = append(header, "month")
	for _, col := range res.Columns {
		header = append(header, "avg_"+col)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, m := range res.Monthly {
		row := make([]string, 0, len(header))
		row = append(row, m.Month.Format("2006-01"))
		for _, col := range res.Columns {
			stat, ok := m.Columns[col]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(stat.Mean, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// SanitizeSheetName trims a location name to the 31-character Excel sheet
// limit and strips path separators. Truncation is by rune so multibyte
// names are never cut mid-character.
func SanitizeSheetName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// BaseName builds the filename stem <clean_location>_<kind>_<y1>_<y2>.
func BaseName(res climate.Result, kind string) string {
	start, end := res.Start, res.End
	if len(res.Daily) > 0 {
		start = res.Daily[0].Date
		end = res.Daily[len(res.Daily)-1].Date
	}
	return fmt.Sprintf("%s_%s_%d_%d", res.Location.Key(), kind, start.Year(), end.Year())
}
