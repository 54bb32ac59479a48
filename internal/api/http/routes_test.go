package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/store"
)

// stubService returns a canned result or error without touching any source.
type stubService struct {
	result climate.Result
	err    error
	calls  int
}

func (s *stubService) Extract(_ context.Context, req climate.Request) (climate.Result, error) {
	s.calls++
	if s.err != nil {
		return climate.Result{}, s.err
	}
	res := s.result
	res.Location = req.Location
	res.Start = req.Start
	res.End = req.End
	return res, nil
}

func fv(v float64) *float64 { return &v }

func testResult() climate.Result {
	d1 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	return climate.Result{
		Columns: []string{"tmax_celsius", "tmean_celsius"},
		Daily: []climate.DailyRecord{
			{Date: d1, Values: map[string]*float64{"tmax_celsius": fv(27.0), "tmean_celsius": fv(17.0)}},
		},
		Summary: climate.Summary{
			"temperature": {"min": 17.0, "max": 27.0, "mean": 17.0},
		},
	}
}

func newTestApp(svc ExtractionService) (*fiber.App, *store.MemoryStore) {
	app := fiber.New()
	st := store.NewMemoryStore(10, time.Hour)
	RegisterRoutes(app, svc, st, nil)
	return app, st
}

func postExtract(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestExtractValidation verifies that malformed requests are rejected with 400
// before the service is called.
func TestExtractValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing latitude", `{"longitude": 27.86, "start_date": "2022-01-01", "end_date": "2022-01-31"}`},
		{"missing dates", `{"latitude": -26.27, "longitude": 27.86}`},
		{"bad date format", `{"latitude": -26.27, "longitude": 27.86, "start_date": "01/01/2022", "end_date": "2022-01-31"}`},
		{"buffer out of range", `{"latitude": -26.27, "longitude": 27.86, "start_date": "2022-01-01", "end_date": "2022-01-31", "buffer_km": 500}`},
		{"unknown variable", `{"latitude": -26.27, "longitude": 27.86, "start_date": "2022-01-01", "end_date": "2022-01-31", "variables": ["rainfall"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{result: testResult()}
			app, _ := newTestApp(svc)

			resp := postExtract(t, app, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.StatusCode)
			}
			if svc.calls != 0 {
				t.Fatalf("expected no service calls, got %d", svc.calls)
			}
		})
	}
}

func TestExtractSuccess(t *testing.T) {
	svc := &stubService{result: testResult()}
	app, _ := newTestApp(svc)

	resp := postExtract(t, app, `{
		"location_name": "Soweto",
		"latitude": -26.2678, "longitude": 27.8607,
		"start_date": "2022-01-01", "end_date": "2022-01-31"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "success" {
		t.Fatalf("expected status success, got %v", body["status"])
	}
	if body["records_extracted"] != float64(1) {
		t.Fatalf("expected 1 record, got %v", body["records_extracted"])
	}
	if body["job_id"] == "" || body["job_id"] == nil {
		t.Fatal("expected a job_id")
	}
	if !strings.HasPrefix(body["download_url"].(string), "/api/v1/extract/") {
		t.Fatalf("unexpected download_url %v", body["download_url"])
	}
}

// TestExtractEmptyRange verifies that an empty extraction still returns 200
// with zero records.
func TestExtractEmptyRange(t *testing.T) {
	svc := &stubService{result: climate.Result{Columns: []string{"tmax_celsius", "tmean_celsius"}}}
	app, _ := newTestApp(svc)

	resp := postExtract(t, app, `{
		"latitude": -26.2678, "longitude": 27.8607,
		"start_date": "2022-01-01", "end_date": "2022-01-31"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["records_extracted"] != float64(0) {
		t.Fatalf("expected 0 records, got %v", body["records_extracted"])
	}
}

func TestExtractSourceUnavailable(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("%w: quota exceeded", climate.ErrSourceUnavailable)}
	app, _ := newTestApp(svc)

	resp := postExtract(t, app, `{
		"latitude": -26.2678, "longitude": 27.8607,
		"start_date": "2022-01-01", "end_date": "2022-01-31"
	}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.StatusCode)
	}
}

func TestExtractInvalidArgumentFromService(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("%w: start_date cannot be in the future", climate.ErrInvalidArgument)}
	app, _ := newTestApp(svc)

	resp := postExtract(t, app, `{
		"latitude": -26.2678, "longitude": 27.8607,
		"start_date": "2022-01-01", "end_date": "2022-01-31"
	}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestDownloadNotFound(t *testing.T) {
	app, _ := newTestApp(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extract/no-such-id/download", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestDownloadCSV(t *testing.T) {
	app, st := newTestApp(&stubService{})

	res := testResult()
	res.Location = climate.Location{Name: "Soweto", Latitude: -26.2678, Longitude: 27.8607}
	st.Save(store.StoredExtraction{ID: "job-1", CreatedAt: time.Now(), Result: res})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extract/job-1/download?format=csv", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if lines[0] != "date,tmax_celsius,tmean_celsius" {
		t.Fatalf("unexpected csv header %q", lines[0])
	}
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
}

func TestLatestForLocation(t *testing.T) {
	app, st := newTestApp(&stubService{})

	res := testResult()
	res.Location = climate.Location{Name: "Soweto", Latitude: -26.2678, Longitude: 27.8607}
	st.Save(store.StoredExtraction{ID: "job-7", CreatedAt: time.Now(), Result: res})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extract/latest?location=Soweto", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["job_id"] != "job-7" {
		t.Fatalf("expected job-7, got %v", body["job_id"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/extract/latest?location=Durban", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestPresets(t *testing.T) {
	app, _ := newTestApp(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Locations []climate.Location `json:"locations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Locations) == 0 {
		t.Fatal("expected preset locations")
	}
}

func TestGeocodeRequiresQuery(t *testing.T) {
	app, _ := newTestApp(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/geocode", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}
