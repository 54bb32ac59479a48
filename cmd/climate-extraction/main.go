package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httpapi "github.com/climhealth/climate-extraction/internal/api/http"
	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/climate/era5"
	"github.com/climhealth/climate-extraction/internal/config"
	"github.com/climhealth/climate-extraction/internal/geocode"
	"github.com/climhealth/climate-extraction/internal/observability"
	"github.com/climhealth/climate-extraction/internal/scheduler"
	"github.com/climhealth/climate-extraction/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Shared HTTP client for outbound calls (source queries, geocoding).
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source := era5.NewClient(httpClient, era5.Config{
		BaseURL:     cfg.SourceBaseURL,
		Project:     cfg.SourceProject,
		Token:       cfg.SourceToken,
		Collection:  cfg.SourceCollection,
		ScaleMeters: cfg.SourceScaleMeters,
		ChunkDays:   cfg.SourceChunkDays,
	})
	if !source.Configured() {
		logger.Warn("climate source is not fully configured; extraction requests will fail",
			zap.String("hint", "set SOURCE_BASE_URL and SOURCE_TOKEN"))
	}

	extractor := climate.NewExtractor(source)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxEntries, cfg.StoreMaxAge)

	// Geocoding: Google when an API key is configured, otherwise Nominatim.
	var resolver geocode.Resolver
	if cfg.GoogleAPIKey != "" {
		resolver = geocode.NewGoogleResolver(cfg.GoogleAPIKey)
	} else {
		resolver = geocode.NewNominatimClient(httpClient, cfg.GeocodeCountryCodes)
	}

	// Scheduler that periodically extracts a trailing window for configured
	// locations.
	sched := scheduler.New(extractor, memStore, logger,
		cfg.SchedulerLocations, cfg.SchedulerCategories,
		cfg.SchedulerBufferKm, cfg.SchedulerWindowDays, cfg.SchedulerInterval)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "climate-extraction",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          120 * time.Second,
		BodyLimit:             4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, extractor, memStore, resolver)

	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
