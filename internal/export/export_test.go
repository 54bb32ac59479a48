package export

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/climhealth/climate-extraction/internal/climate"
)

func fv(v float64) *float64 { return &v }

func sampleResult() climate.Result {
	d1 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
	return climate.Result{
		Location: climate.Location{Name: "Soweto, South Africa", Latitude: -26.2678, Longitude: 27.8607},
		Start:    d1,
		End:      d2,
		Columns:  []string{"tmax_celsius", "tmean_celsius", "precipitation_mm"},
		Daily: []climate.DailyRecord{
			{Date: d1, Values: map[string]*float64{
				"tmax_celsius": fv(27.5), "tmean_celsius": fv(21.0), "precipitation_mm": fv(3.2),
			}},
			{Date: d2, Values: map[string]*float64{
				"tmax_celsius": fv(29.0), "tmean_celsius": fv(22.5), "precipitation_mm": nil,
			}},
		},
		Summary: climate.Summary{
			"temperature": {"min": 21.0, "max": 29.0, "mean": 21.75},
		},
		Monthly: []climate.MonthlyRecord{
			{
				Month: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				Columns: map[string]climate.MonthlyStat{
					"tmax_celsius": {Mean: 28.25, Std: 1.06, Min: 27.5, Max: 29.0, Count: 2},
				},
			},
		},
	}
}

func TestWriteDailyCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDailyCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "date,tmax_celsius,tmean_celsius,precipitation_mm" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "2022-01-01,27.5,21,3.2" {
		t.Fatalf("unexpected row %q", lines[1])
	}
	// Missing values become empty cells, not zeros.
	if lines[2] != "2022-01-02,29,22.5," {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestWriteMonthlyCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMonthlyCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "month,avg_tmax_celsius,avg_tmean_celsius,avg_precipitation_mm" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "2022-01,28.25,," {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestBaseName(t *testing.T) {
	got := BaseName(sampleResult(), "daily_climate")
	if got != "soweto_south_africa_daily_climate_2022_2022" {
		t.Fatalf("unexpected base name %q", got)
	}
}

func TestSanitizeSheetName(t *testing.T) {
	if got := SanitizeSheetName("A/B\\C"); got != "A_B_C" {
		t.Fatalf("expected A_B_C, got %q", got)
	}
	long := strings.Repeat("x", 40)
	if got := SanitizeSheetName(long); len(got) != 31 {
		t.Fatalf("expected 31 chars, got %d", len(got))
	}

	// Truncation never splits a multibyte rune.
	accented := strings.Repeat("é", 40)
	got := SanitizeSheetName(accented)
	if utf8.RuneCountInString(got) != 31 {
		t.Fatalf("expected 31 runes, got %d", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
}

func TestBuildWorkbook(t *testing.T) {
	wb, err := BuildWorkbook(sampleResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer wb.Close()

	for _, sheet := range []string{"Daily_Data", "Monthly_Averages", "Metadata"} {
		if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("expected sheet %s, got index %d err %v", sheet, idx, err)
		}
	}

	rows, err := wb.GetRows("Daily_Data")
	if err != nil {
		t.Fatalf("read daily sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "2022-01-01" {
		t.Fatalf("unexpected first date cell %q", rows[1][0])
	}

	meta, err := wb.GetRows("Metadata")
	if err != nil {
		t.Fatalf("read metadata sheet: %v", err)
	}
	foundSource := false
	for _, row := range meta {
		if len(row) >= 2 && row[0] == "Data Source" && row[1] == DataSourceLabel {
			foundSource = true
		}
	}
	if !foundSource {
		t.Fatal("expected data source row in metadata")
	}
}

func TestBuildBatchWorkbook(t *testing.T) {
	a := sampleResult()
	b := sampleResult()
	b.Location = climate.Location{Name: "Cape Town", Latitude: -33.9249, Longitude: 18.4241}

	wb, err := BuildBatchWorkbook([]climate.Result{a, b}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer wb.Close()

	for _, sheet := range []string{"Summary", "Soweto, South Africa", "Cape Town"} {
		if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("expected sheet %q, got index %d err %v", sheet, idx, err)
		}
	}

	rows, err := wb.GetRows("Summary")
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[2][0] != "Cape Town" {
		t.Fatalf("unexpected summary row %v", rows[2])
	}
}

// TestBuildBatchWorkbookResolvesSheetCollisions verifies that two locations
// sanitizing to the same 31-character sheet name each keep their own sheet.
func TestBuildBatchWorkbookResolvesSheetCollisions(t *testing.T) {
	a := sampleResult()
	a.Location.Name = strings.Repeat("x", 31) + " East"
	b := sampleResult()
	b.Location.Name = strings.Repeat("x", 31) + " West"

	wb, err := BuildBatchWorkbook([]climate.Result{a, b}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer wb.Close()

	first := strings.Repeat("x", 31)
	second := strings.Repeat("x", 29) + "_2"
	for _, sheet := range []string{first, second} {
		if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("expected sheet %q, got index %d err %v", sheet, idx, err)
		}
	}

	// Each sheet keeps its own data rows.
	rows, err := wb.GetRows(second)
	if err != nil {
		t.Fatalf("read second sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows on second sheet, got %d", len(rows))
	}
}

// TestBuildBatchWorkbookReportsFailures verifies that failed locations appear
// on the Summary sheet without a data sheet of their own.
func TestBuildBatchWorkbookReportsFailures(t *testing.T) {
	a := sampleResult()

	wb, err := BuildBatchWorkbook([]climate.Result{a}, []BatchFailure{
		{Location: "Atlantis", Reason: "invalid argument: latitude 95.0000 out of range [-90, 90]"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer wb.Close()

	if idx, err := wb.GetSheetIndex("Atlantis"); err != nil || idx >= 0 {
		t.Fatalf("expected no data sheet for failed location, got index %d err %v", idx, err)
	}

	rows, err := wb.GetRows("Summary")
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	failureRow := rows[2]
	if failureRow[0] != "Atlantis" {
		t.Fatalf("unexpected failure row %v", failureRow)
	}
	if !strings.Contains(failureRow[len(failureRow)-1], "latitude") {
		t.Fatalf("expected failure reason in status column, got %v", failureRow)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()

	paths, err := WriteFiles(sampleResult(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(paths), paths)
	}
}

func TestWriteFilesRejectsEmptyResult(t *testing.T) {
	res := sampleResult()
	res.Daily = nil

	if _, err := WriteFiles(res, t.TempDir()); err == nil {
		t.Fatal("expected an error for empty result")
	}
}
