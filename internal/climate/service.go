package climate

import (
	"context"
	"fmt"
	"time"
)

// CoverageStart is the first date for which ERA5-Land daily aggregates exist.
var CoverageStart = time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)

// Extractor runs the multi-variable extraction pipeline against an external
// daily time-series source. It holds no mutable state beyond the source
// handle; one Extract call processes one request's categories sequentially,
// one source query per category, in the order requested. The source itself
// enforces rate limits, so there is no internal retrying, caching, or
// parallel dispatch.
type Extractor struct {
	source Source
}

// NewExtractor creates an Extractor backed by the given source.
func NewExtractor(source Source) *Extractor {
	return &Extractor{source: source}
}

// Extract validates the request, queries the source once per requested
// category, applies each category's unit conversion and column renaming, and
// outer-joins the per-category daily series on date. A range with no data
// yields an empty result, not an error.
func (e *Extractor) Extract(ctx context.Context, req Request) (Result, error) {
	categories, err := validateRequest(req)
	if err != nil {
		return Result{}, err
	}

	columns := ColumnsFor(categories)
	series := make([]categorySeries, 0, len(categories))

	for _, c := range categories {
		spec, _ := SpecFor(c)

		points, err := e.source.QueryDailySeries(ctx, SeriesQuery{
			Bands:     spec.Bands,
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
			BufferKm:  req.BufferKm,
			Start:     req.Start,
			End:       req.End,
		})
		if err != nil {
			// Source failures are surfaced unchanged; no retries.
			return Result{}, err
		}

		series = append(series, convertSeries(spec, points))
	}

	daily := mergeDaily(columns, series)

	return Result{
		Location: req.Location,
		Start:    req.Start,
		End:      req.End,
		Columns:  columns,
		Daily:    daily,
		Summary:  summarize(categories, daily),
		Monthly:  monthlyAggregates(columns, daily),
	}, nil
}

// validateRequest checks categories, coordinates, buffer, and the date range
// against the source coverage window. All failures are ErrInvalidArgument and
// occur before any source query is issued.
func validateRequest(req Request) ([]Category, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("%w: at least one variable category is required", ErrInvalidArgument)
	}

	seen := make(map[Category]bool, len(req.Categories))
	categories := make([]Category, 0, len(req.Categories))
	for _, c := range req.Categories {
		if _, ok := variableSpecs[c]; !ok {
			return nil, fmt.Errorf("%w: unknown variable category %q", ErrInvalidArgument, c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}

	if req.Location.Latitude < -90 || req.Location.Latitude > 90 {
		return nil, fmt.Errorf("%w: latitude %.4f out of range [-90, 90]", ErrInvalidArgument, req.Location.Latitude)
	}
	if req.Location.Longitude < -180 || req.Location.Longitude > 180 {
		return nil, fmt.Errorf("%w: longitude %.4f out of range [-180, 180]", ErrInvalidArgument, req.Location.Longitude)
	}
	if req.BufferKm < 0 {
		return nil, fmt.Errorf("%w: buffer radius must be >= 0 km", ErrInvalidArgument)
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return nil, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidArgument)
	}
	if req.Start.After(req.End) {
		return nil, fmt.Errorf("%w: start_date %s is after end_date %s",
			ErrInvalidArgument, req.Start.Format(DateFormat), req.End.Format(DateFormat))
	}
	if req.Start.Before(CoverageStart) {
		return nil, fmt.Errorf("%w: ERA5-Land data is only available from %s",
			ErrInvalidArgument, CoverageStart.Format(DateFormat))
	}
	if today := dateOnly(time.Now()); req.Start.After(today) {
		return nil, fmt.Errorf("%w: start_date cannot be in the future", ErrInvalidArgument)
	}

	return categories, nil
}
