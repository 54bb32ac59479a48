package httpapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/export"
	"github.com/climhealth/climate-extraction/internal/observability"
)

// maxBatchLocations bounds one upload; each location is queried sequentially
// against the rate-limited source.
const maxBatchLocations = 50

// handleBatchExtract accepts a multipart CSV of locations plus shared form
// fields, extracts each location in order, and streams back a multi-sheet
// Excel workbook.
func handleBatchExtract(c *fiber.Ctx, service ExtractionService) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "a csv file upload named 'file' is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer f.Close()

	locations, err := parseLocationsCSV(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(locations) > maxBatchLocations {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("too many locations: %d (max %d)", len(locations), maxBatchLocations))
	}

	start, err := time.ParseInLocation(climate.DateFormat, c.FormValue("start_date"), time.UTC)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "start_date form field is required (YYYY-MM-DD)")
	}
	end, err := time.ParseInLocation(climate.DateFormat, c.FormValue("end_date"), time.UTC)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "end_date form field is required (YYYY-MM-DD)")
	}

	buffer := 10.0
	if v := c.FormValue("buffer_km"); v != "" {
		buffer, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid buffer_km")
		}
	}

	names := []string{string(climate.CategoryTemperature)}
	if v := c.FormValue("variables"); v != "" {
		names = strings.Split(v, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
	}
	categories, err := climate.ParseCategories(names)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	results := make([]climate.Result, 0, len(locations))
	var failures []export.BatchFailure
	for _, loc := range locations {
		result, err := service.Extract(c.Context(), climate.Request{
			Location:   loc,
			Start:      start,
			End:        end,
			BufferKm:   buffer,
			Categories: categories,
		})
		if err != nil {
			// A failed location is recorded on the Summary sheet and skipped;
			// the remaining locations are still extracted.
			mapExtractionError(err)
			failures = append(failures, export.BatchFailure{Location: loc.Name, Reason: err.Error()})
			continue
		}
		observability.ExtractionsTotal.WithLabelValues("success").Inc()
		observability.ExtractionRecords.Observe(float64(len(result.Daily)))
		results = append(results, result)
	}

	if len(results) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no data could be extracted for any location")
	}

	wb, err := export.BuildBatchWorkbook(results, failures)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render workbook")
	}
	defer wb.Close()

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render workbook")
	}

	filename := fmt.Sprintf("batch_climate_data_%d_%d.xlsx", start.Year(), end.Year())
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

// parseLocationsCSV reads a header row and one location per line. Accepted
// header names: name/location/city, latitude/lat, longitude/lon/lng. Rows
// without a name get a positional fallback.
func parseLocationsCSV(r io.Reader) ([]climate.Location, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.New("uploaded file is empty or not a csv")
	}

	nameIdx, latIdx, lonIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "location", "city":
			nameIdx = i
		case "latitude", "lat":
			latIdx = i
		case "longitude", "lon", "lng":
			lonIdx = i
		}
	}
	if latIdx < 0 || lonIdx < 0 {
		return nil, errors.New("csv must have latitude and longitude columns")
	}

	var locations []climate.Location
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if latIdx >= len(row) || lonIdx >= len(row) {
			return nil, fmt.Errorf("csv line %d: missing coordinate columns", line)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(row[latIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid latitude", line)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[lonIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid longitude", line)
		}

		name := ""
		if nameIdx >= 0 && nameIdx < len(row) {
			name = strings.TrimSpace(row[nameIdx])
		}
		if name == "" {
			name = fmt.Sprintf("Location_%d", len(locations)+1)
		}

		locations = append(locations, climate.Location{Name: name, Latitude: lat, Longitude: lon})
	}

	if len(locations) == 0 {
		return nil, errors.New("csv contains no locations")
	}
	return locations, nil
}
