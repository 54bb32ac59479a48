package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/climhealth/climate-extraction/internal/climate"
)

// BuildWorkbook builds a single-location workbook with Daily_Data,
// Monthly_Averages, and Metadata sheets. The caller owns the returned file.
func BuildWorkbook(res climate.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), "Daily_Data"); err != nil {
		return nil, err
	}
	if err := writeDailySheet(f, "Daily_Data", res); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Monthly_Averages"); err != nil {
		return nil, err
	}
	if err := writeMonthlySheet(f, "Monthly_Averages", res); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Metadata"); err != nil {
		return nil, err
	}
	if err := writeMetadataSheet(f, "Metadata", res); err != nil {
		return nil, err
	}

	return f, nil
}

// BatchFailure records a location that could not be extracted; it appears on
// the batch workbook's Summary sheet instead of getting a data sheet.
type BatchFailure struct {
	Location string
	Reason   string
}

// BuildBatchWorkbook builds a workbook with a Summary sheet followed by one
// daily-data sheet per successfully extracted location. Failed locations are
// listed on the Summary sheet only.
func BuildBatchWorkbook(results []climate.Result, failures []BatchFailure) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), "Summary"); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, "Summary", results, failures); err != nil {
		return nil, err
	}

	used := map[string]bool{"Summary": true}
	for _, res := range results {
		sheet := uniqueSheetName(used, res.Location.Name)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeDailySheet(f, sheet, res); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// uniqueSheetName sanitizes a location name and appends a numeric suffix when
// it collides with a sheet already in the workbook, staying within the
// 31-character limit.
func uniqueSheetName(used map[string]bool, name string) string {
	base := SanitizeSheetName(name)
	sheet := base
	for n := 2; used[sheet]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		sheet = string(r) + suffix
	}
	used[sheet] = true
	return sheet
}

func writeDailySheet(f *excelize.File, sheet string, res climate.Result) error {
	header := make([]interface{}, 0, len(res.Columns)+1)
	header = append(header, "date")
	for _, col := range res.Columns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range res.Daily {
		row := make([]interface{}, 0, len(res.Columns)+1)
		row = append(row, rec.Date.Format(climate.DateFormat))
		for _, col := range res.Columns {
			if v := rec.Values[col]; v != nil {
				row = append(row, *v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

func writeMonthlySheet(f *excelize.File, sheet string, res climate.Result) error {
	header := make([]interface{}, 0, len(res.Columns)+1)
	header = append(header, "month")
	for _, col := range res.Columns {
		header = append(header, "avg_"+col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, m := range res.Monthly {
		row := make([]interface{}, 0, len(res.Columns)+1)
		row = append(row, m.Month.Format("2006-01"))
		for _, col := range res.Columns {
			if stat, ok := m.Columns[col]; ok {
				row = append(row, stat.Mean)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

func writeMetadataSheet(f *excelize.File, sheet string, res climate.Result) error {
	rows := [][]interface{}{
		{"Parameter", "Value"},
		{"Location", res.Location.Name},
		{"Date Range", dateRangeLabel(res)},
		{"Daily Records", len(res.Daily)},
		{"Monthly Records", len(res.Monthly)},
	}

	if temp, ok := res.Summary["temperature"]; ok {
		rows = append(rows,
			[]interface{}{"Min Temperature", fmt.Sprintf("%.1f°C", temp["min"])},
			[]interface{}{"Max Temperature", fmt.Sprintf("%.1f°C", temp["max"])},
		)
	}
	rows = append(rows, []interface{}{"Data Source", DataSourceLabel})

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, results []climate.Result, failures []BatchFailure) error {
	header := []interface{}{"Location", "Records", "Date Range", "Mean Temp (°C)", "Max Temp (°C)", "Min Temp (°C)", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	line := 2
	for _, res := range results {
		row := []interface{}{res.Location.Name, len(res.Daily), dateRangeLabel(res), nil, nil, nil, "ok"}
		if temp, ok := res.Summary["temperature"]; ok {
			row[3] = temp["mean"]
			row[4] = temp["max"]
			row[5] = temp["min"]
		}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		line++
	}

	for _, failure := range failures {
		row := []interface{}{failure.Location, 0, nil, nil, nil, nil, failure.Reason}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		line++
	}
	return nil
}

func dateRangeLabel(res climate.Result) string {
	if len(res.Daily) == 0 {
		return fmt.Sprintf("%s to %s", res.Start.Format(climate.DateFormat), res.End.Format(climate.DateFormat))
	}
	return fmt.Sprintf("%s to %s",
		res.Daily[0].Date.Format(climate.DateFormat),
		res.Daily[len(res.Daily)-1].Date.Format(climate.DateFormat))
}
