package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/climhealth/climate-extraction/internal/climate"
)

// AppConfig holds all service settings, read from the environment.
type AppConfig struct {
	// External time-series source.
	SourceBaseURL     string
	SourceProject     string
	SourceToken       string
	SourceCollection  string
	SourceScaleMeters int
	SourceChunkDays   int

	// HTTPTimeout bounds outbound calls (source queries, geocoding).
	HTTPTimeout time.Duration

	// GoogleAPIKey switches geocoding from Nominatim to Google when set.
	GoogleAPIKey string

	// GeocodeCountryCodes restricts Nominatim results (e.g. "za").
	GeocodeCountryCodes string

	// Store retention for completed extractions.
	StoreMaxEntries int
	StoreMaxAge     time.Duration

	// Scheduled extraction of a trailing window for fixed locations.
	SchedulerInterval   time.Duration
	SchedulerWindowDays int
	SchedulerBufferKm   float64
	SchedulerLocations  []climate.Location
	SchedulerCategories []climate.Category

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.SourceBaseURL = os.Getenv("SOURCE_BASE_URL")
	cfg.SourceProject = getenvDefault("SOURCE_PROJECT", "joburg-hvi")
	cfg.SourceToken = os.Getenv("SOURCE_TOKEN")
	cfg.SourceCollection = getenvDefault("SOURCE_COLLECTION", "ECMWF/ERA5_LAND/DAILY_AGGR")
	cfg.SourceScaleMeters = getenvInt("SOURCE_SCALE_METERS", 1000)
	cfg.SourceChunkDays = getenvInt("SOURCE_CHUNK_DAYS", 90)

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "60s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.GeocodeCountryCodes = getenvDefault("GEOCODE_COUNTRY_CODES", "za")

	cfg.StoreMaxEntries = getenvInt("STORE_MAX_ENTRIES", 100)
	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	intervalStr := getenvDefault("SCHEDULER_INTERVAL", "24h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL: %w", err)
	}
	cfg.SchedulerInterval = interval
	cfg.SchedulerWindowDays = getenvInt("SCHEDULER_WINDOW_DAYS", 30)
	cfg.SchedulerBufferKm = getenvFloat("SCHEDULER_BUFFER_KM", 10)

	locs, err := loadScheduledLocations()
	if err != nil {
		return nil, err
	}
	cfg.SchedulerLocations = locs

	cats, err := loadScheduledCategories()
	if err != nil {
		return nil, err
	}
	cfg.SchedulerCategories = cats

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	return cfg, nil
}

// loadScheduledLocations parses SCHEDULER_LOCATIONS, a comma-separated list
// of name:lat:lon triples, e.g. "Soweto:-26.2678:27.8607,Cape Town:-33.9249:18.4241".
func loadScheduledLocations() ([]climate.Location, error) {
	raw := os.Getenv("SCHEDULER_LOCATIONS")
	if raw == "" {
		return nil, nil
	}

	var locs []climate.Location
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid SCHEDULER_LOCATIONS entry %q; want name:lat:lon", entry)
		}
		lat, errLat := strconv.ParseFloat(parts[1], 64)
		lon, errLon := strconv.ParseFloat(parts[2], 64)
		if errLat != nil || errLon != nil {
			return nil, fmt.Errorf("invalid coordinates in SCHEDULER_LOCATIONS entry %q", entry)
		}
		locs = append(locs, climate.Location{Name: parts[0], Latitude: lat, Longitude: lon})
	}
	return locs, nil
}

// loadScheduledCategories parses SCHEDULER_VARIABLES, a comma-separated list
// of category names. Defaults to temperature.
func loadScheduledCategories() ([]climate.Category, error) {
	raw := getenvDefault("SCHEDULER_VARIABLES", "temperature")
	names := strings.Split(raw, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	cats, err := climate.ParseCategories(names)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_VARIABLES: %w", err)
	}
	return cats, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
