package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/climhealth/climate-extraction/internal/climate"
)

// WriteFiles exports a result to disk: daily CSV, monthly CSV, and an Excel
// workbook, named after the location and year range. Returns the created
// paths.
func WriteFiles(res climate.Result, outputDir string) ([]string, error) {
	if len(res.Daily) == 0 {
		return nil, fmt.Errorf("no data to export")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var created []string

	dailyPath := filepath.Join(outputDir, BaseName(res, "daily_climate")+".csv")
	if err := writeCSVFile(dailyPath, res, WriteDailyCSV); err != nil {
		return created, err
	}
	created = append(created, dailyPath)

	if len(res.Monthly) > 0 {
		monthlyPath := filepath.Join(outputDir, BaseName(res, "monthly_climate")+".csv")
		if err := writeCSVFile(monthlyPath, res, WriteMonthlyCSV); err != nil {
			return created, err
		}
		created = append(created, monthlyPath)
	}

	excelPath := filepath.Join(outputDir, BaseName(res, "climate_data")+".xlsx")
	wb, err := BuildWorkbook(res)
	if err != nil {
		return created, fmt.Errorf("build workbook: %w", err)
	}
	defer wb.Close()
	if err := wb.SaveAs(excelPath); err != nil {
		return created, fmt.Errorf("save workbook: %w", err)
	}
	created = append(created, excelPath)

	return created, nil
}

func writeCSVFile(path string, res climate.Result, write func(w io.Writer, res climate.Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f, res); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
