package climate

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidArgument marks a request rejected during validation, before
	// any source query is issued.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSourceUnavailable marks an auth, network, or quota failure from the
	// external data source. It is surfaced to the caller unchanged.
	ErrSourceUnavailable = errors.New("climate data source unavailable")
)

// SeriesQuery asks the external source for daily values of a set of bands,
// spatially averaged over a buffered region and sampled at a point.
type SeriesQuery struct {
	Bands     []string
	Latitude  float64
	Longitude float64
	BufferKm  float64
	Start     time.Time // inclusive, UTC midnight
	End       time.Time // inclusive, UTC midnight
}

// SeriesPoint is one day of raw band values from the source. A nil value
// means the source had no data for that band on that day.
type SeriesPoint struct {
	Date   time.Time
	Values map[string]*float64
}

// Source abstracts the external daily time-series data source (ERA5-Land
// daily aggregates via an Earth Engine style endpoint).
type Source interface {
	QueryDailySeries(ctx context.Context, q SeriesQuery) ([]SeriesPoint, error)
}
