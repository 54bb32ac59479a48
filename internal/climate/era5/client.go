// Package era5 implements the climate.Source interface against an Earth
// Engine style time-series endpoint serving the ECMWF/ERA5_LAND/DAILY_AGGR
// collection. The endpoint returns raw band values in source units (Kelvin,
// meters, m/s, Pa, J/m2); unit conversion happens in the climate package.
package era5

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/observability"
)

// DefaultCollection is the ERA5-Land daily aggregate image collection.
const DefaultCollection = "ECMWF/ERA5_LAND/DAILY_AGGR"

// Config holds client settings.
type Config struct {
	// BaseURL of the time-series endpoint, without trailing slash.
	BaseURL string

	// Project is the Earth Engine cloud project the endpoint bills against.
	Project string

	// Token is the bearer token obtained out-of-band (earthengine
	// authenticate); the client only forwards it.
	Token string

	// Collection overrides DefaultCollection when set.
	Collection string

	// ScaleMeters is the sampling scale for point extraction. ERA5-Land has
	// ~9km native resolution; 1000m point sampling is sufficient.
	ScaleMeters int

	// ChunkDays bounds the date span of a single endpoint request. Long
	// ranges are fetched in sequential chunks to stay inside the endpoint's
	// per-request element limits. Defaults to 90.
	ChunkDays int
}

// Client is an HTTP client for the ERA5-Land time-series endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Client. The http.Client is shared with other outbound
// callers and carries the request timeout.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.ScaleMeters <= 0 {
		cfg.ScaleMeters = 1000
	}
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = 90
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Configured reports whether the client has an endpoint and credentials.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.Token != ""
}

// seriesRequest is the JSON body of one endpoint call. Dates are half-open
// [startDate, endDate) per Earth Engine filterDate semantics.
type seriesRequest struct {
	Collection   string    `json:"collection"`
	Bands        []string  `json:"bands"`
	Point        []float64 `json:"point"` // [lon, lat]
	BufferMeters float64   `json:"bufferMeters"`
	ScaleMeters  int       `json:"scaleMeters"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
}

// seriesResponse mirrors the getRegion wire shape: a header row naming the
// columns (id, longitude, latitude, time, then one column per band) and data
// rows with epoch-millisecond timestamps and nullable band values.
type seriesResponse struct {
	Header []string            `json:"header"`
	Rows   [][]json.RawMessage `json:"rows"`
}

// QueryDailySeries fetches daily band values for the inclusive date range,
// issuing one endpoint request per chunk, sequentially and without retries.
func (c *Client) QueryDailySeries(ctx context.Context, q climate.SeriesQuery) ([]climate.SeriesPoint, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: source endpoint or token not configured", climate.ErrSourceUnavailable)
	}

	var points []climate.SeriesPoint

	chunk := time.Duration(c.cfg.ChunkDays) * 24 * time.Hour
	for cur := q.Start; !cur.After(q.End); cur = cur.Add(chunk) {
		chunkEnd := cur.Add(chunk - 24*time.Hour)
		if chunkEnd.After(q.End) {
			chunkEnd = q.End
		}

		chunkPoints, err := c.queryChunk(ctx, q, cur, chunkEnd)
		if err != nil {
			return nil, err
		}
		points = append(points, chunkPoints...)
	}

	return points, nil
}

func (c *Client) queryChunk(ctx context.Context, q climate.SeriesQuery, start, end time.Time) ([]climate.SeriesPoint, error) {
	category := "unknown"
	if len(q.Bands) > 0 {
		category = q.Bands[0]
	}

	began := time.Now()
	points, err := c.doQuery(ctx, q, start, end)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.SourceQueriesTotal.WithLabelValues(category, status).Inc()
	observability.SourceQueryDuration.WithLabelValues(status).Observe(time.Since(began).Seconds())
	return points, err
}

func (c *Client) doQuery(ctx context.Context, q climate.SeriesQuery, start, end time.Time) ([]climate.SeriesPoint, error) {
	body := seriesRequest{
		Collection:   c.cfg.Collection,
		Bands:        q.Bands,
		Point:        []float64{q.Longitude, q.Latitude},
		BufferMeters: q.BufferKm * 1000,
		ScaleMeters:  c.cfg.ScaleMeters,
		StartDate:    start.Format(climate.DateFormat),
		// The endpoint treats endDate as exclusive; widen by one day so the
		// caller's inclusive range is honored.
		EndDate: end.Add(24 * time.Hour).Format(climate.DateFormat),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode series request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/timeseries:compute", c.cfg.BaseURL, c.cfg.Project)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build series request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", climate.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var sr seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode series response: %w", err)
	}

	return parseSeries(sr, q.Bands)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: authentication rejected (HTTP %d); check Earth Engine credentials",
			climate.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: quota exceeded (HTTP 429)", climate.ErrSourceUnavailable)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", climate.ErrSourceUnavailable, resp.StatusCode)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from source: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
}

// parseSeries converts the header/rows wire shape into SeriesPoints. Band
// columns are located by header name; null cells become nil values.
func parseSeries(sr seriesResponse, bands []string) ([]climate.SeriesPoint, error) {
	if len(sr.Rows) == 0 {
		return nil, nil
	}

	timeIdx := -1
	bandIdx := make(map[string]int, len(bands))
	for i, name := range sr.Header {
		if name == "time" {
			timeIdx = i
		}
		bandIdx[name] = i
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("series response header missing time column")
	}
	for _, band := range bands {
		if _, ok := bandIdx[band]; !ok {
			return nil, fmt.Errorf("series response header missing band %q", band)
		}
	}

	points := make([]climate.SeriesPoint, 0, len(sr.Rows))
	for _, row := range sr.Rows {
		if len(row) != len(sr.Header) {
			return nil, fmt.Errorf("series row has %d cells, header has %d", len(row), len(sr.Header))
		}

		var ms int64
		if err := json.Unmarshal(row[timeIdx], &ms); err != nil {
			return nil, fmt.Errorf("parse time cell: %w", err)
		}

		p := climate.SeriesPoint{
			Date:   time.UnixMilli(ms).UTC(),
			Values: make(map[string]*float64, len(bands)),
		}
		for _, band := range bands {
			cell := row[bandIdx[band]]
			if bytes.Equal(cell, []byte("null")) {
				p.Values[band] = nil
				continue
			}
			var v float64
			if err := json.Unmarshal(cell, &v); err != nil {
				return nil, fmt.Errorf("parse %s cell: %w", band, err)
			}
			p.Values[band] = &v
		}
		points = append(points, p)
	}

	return points, nil
}
