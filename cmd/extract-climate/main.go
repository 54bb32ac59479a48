// Command extract-climate extracts daily climate data for one location and
// writes CSV and Excel files, without running the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/climate/era5"
	"github.com/climhealth/climate-extraction/internal/config"
	"github.com/climhealth/climate-extraction/internal/export"
)

func main() {
	var (
		lat       = flag.Float64("lat", -26.2678, "latitude of the extraction point")
		lon       = flag.Float64("lon", 27.8607, "longitude of the extraction point")
		name      = flag.String("location", "Soweto, South Africa", "location name used in output files")
		startStr  = flag.String("start-date", "", "start date (YYYY-MM-DD), required")
		endStr    = flag.String("end-date", "", "end date (YYYY-MM-DD), required")
		bufferKm  = flag.Float64("buffer-km", 10, "buffer radius around the point in km")
		chunkDays = flag.Int("chunk-days", 0, "override source query chunk size in days")
		variables = flag.String("variables", "temperature", "comma-separated variable categories")
		outputDir = flag.String("output-dir", "climate_data", "directory for output files")
	)
	flag.Parse()

	if *startStr == "" || *endStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	start, err := time.ParseInLocation(climate.DateFormat, *startStr, time.UTC)
	if err != nil {
		log.Fatalf("invalid --start-date: %v", err)
	}
	end, err := time.ParseInLocation(climate.DateFormat, *endStr, time.UTC)
	if err != nil {
		log.Fatalf("invalid --end-date: %v", err)
	}

	names := strings.Split(*variables, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	categories, err := climate.ParseCategories(names)
	if err != nil {
		log.Fatalf("invalid --variables: %v", err)
	}

	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *chunkDays > 0 {
		cfg.SourceChunkDays = *chunkDays
	}

	source := era5.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, era5.Config{
		BaseURL:     cfg.SourceBaseURL,
		Project:     cfg.SourceProject,
		Token:       cfg.SourceToken,
		Collection:  cfg.SourceCollection,
		ScaleMeters: cfg.SourceScaleMeters,
		ChunkDays:   cfg.SourceChunkDays,
	})
	if !source.Configured() {
		log.Fatal("climate source is not configured; set SOURCE_BASE_URL and SOURCE_TOKEN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	extractor := climate.NewExtractor(source)
	result, err := extractor.Extract(ctx, climate.Request{
		Location:   climate.Location{Name: *name, Latitude: *lat, Longitude: *lon},
		Start:      start,
		End:        end,
		BufferKm:   *bufferKm,
		Categories: categories,
	})
	if err != nil {
		log.Fatalf("extraction failed: %v", err)
	}

	fmt.Printf("Extracted %d daily records for %s (%s to %s)\n",
		len(result.Daily), result.Location.Name, *startStr, *endStr)
	printSummary(result.Summary)

	if len(result.Daily) == 0 {
		fmt.Println("No data returned; nothing to export.")
		return
	}

	paths, err := export.WriteFiles(result, *outputDir)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	for _, p := range paths {
		fmt.Println("wrote", p)
	}
}

func printSummary(summary climate.Summary) {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		stats := summary[key]
		statKeys := make([]string, 0, len(stats))
		for k := range stats {
			statKeys = append(statKeys, k)
		}
		sort.Strings(statKeys)

		parts := make([]string, 0, len(statKeys))
		for _, sk := range statKeys {
			parts = append(parts, fmt.Sprintf("%s=%.2f", sk, stats[sk]))
		}
		fmt.Printf("  %s: %s\n", key, strings.Join(parts, " "))
	}
}
