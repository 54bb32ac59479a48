// Package geocode resolves free-text place queries to coordinates so users
// can locate study areas without knowing latitude/longitude. Geocoding sits
// outside the extraction pipeline; its clients may retry and trip breakers
// without affecting pipeline semantics.
package geocode

import "context"

// Result is one geocoding candidate.
type Result struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Type        string  `json:"type"`
}

// Resolver turns a place query into candidate coordinates.
type Resolver interface {
	Search(ctx context.Context, query string) ([]Result, error)
}
