package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"

	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/export"
	"github.com/climhealth/climate-extraction/internal/geocode"
	"github.com/climhealth/climate-extraction/internal/observability"
	"github.com/climhealth/climate-extraction/internal/store"
)

var validate = validator.New()

// ExtractionService is the part of the climate extractor the handlers need.
type ExtractionService interface {
	Extract(ctx context.Context, req climate.Request) (climate.Result, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ExtractionService, st *store.MemoryStore, resolver geocode.Resolver) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	app.Get("/metrics", adaptor.HTTPHandler(observability.Handler()))

	app.Get("/api", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "climate-extraction",
			"source":  export.DataSourceLabel,
			"version": "1.0",
			"endpoints": []string{
				"POST /api/v1/extract",
				"POST /api/v1/extract/batch",
				"GET /api/v1/extract/:id/download",
				"GET /api/v1/presets",
				"GET /api/v1/geocode",
			},
		})
	})

	v1 := app.Group("/api/v1")

	v1.Post("/extract", func(c *fiber.Ctx) error {
		var req extractRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cr, err := req.toRequest()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Extract(c.Context(), cr)
		if err != nil {
			return mapExtractionError(err)
		}
		observability.ExtractionsTotal.WithLabelValues("success").Inc()
		observability.ExtractionRecords.Observe(float64(len(result.Daily)))

		id := uuid.NewString()
		st.Save(store.StoredExtraction{ID: id, CreatedAt: time.Now().UTC(), Result: result})

		return c.JSON(fiber.Map{
			"status": "success",
			"job_id": id,
			"location": fiber.Map{
				"name":      result.Location.Name,
				"latitude":  result.Location.Latitude,
				"longitude": result.Location.Longitude,
			},
			"date_range": fiber.Map{
				"start_date": result.Start.Format(climate.DateFormat),
				"end_date":   result.End.Format(climate.DateFormat),
			},
			"records_extracted":  len(result.Daily),
			"columns":            result.Columns,
			"summary_statistics": result.Summary,
			"data": fiber.Map{
				"daily":   result.Daily,
				"monthly": result.Monthly,
			},
			"download_url": "/api/v1/extract/" + id + "/download",
		})
	})

	v1.Post("/extract/batch", func(c *fiber.Ctx) error {
		return handleBatchExtract(c, service)
	})

	v1.Get("/extract/latest", func(c *fiber.Ctx) error {
		name := c.Query("location")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "location query parameter is required")
		}

		ex, err := st.LatestForLocation(climate.Location{Name: name})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no extraction stored for this location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load extraction")
		}

		return c.JSON(fiber.Map{
			"status":             "success",
			"job_id":             ex.ID,
			"created_at":         ex.CreatedAt.Format(time.RFC3339),
			"location":           ex.Result.Location,
			"records_extracted":  len(ex.Result.Daily),
			"columns":            ex.Result.Columns,
			"summary_statistics": ex.Result.Summary,
			"data": fiber.Map{
				"daily":   ex.Result.Daily,
				"monthly": ex.Result.Monthly,
			},
			"download_url": "/api/v1/extract/" + ex.ID + "/download",
		})
	})

	v1.Get("/extract/:id/download", func(c *fiber.Ctx) error {
		ex, err := st.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no extraction found for this id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load extraction")
		}

		switch c.Query("format", "csv") {
		case "csv":
			var buf bytes.Buffer
			if err := export.WriteDailyCSV(&buf, ex.Result); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to render csv")
			}
			c.Set(fiber.HeaderContentType, "text/csv")
			c.Set(fiber.HeaderContentDisposition,
				fmt.Sprintf("attachment; filename=%q", export.BaseName(ex.Result, "daily_climate")+".csv"))
			return c.Send(buf.Bytes())
		case "xlsx":
			wb, err := export.BuildWorkbook(ex.Result)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to render workbook")
			}
			defer wb.Close()
			var buf bytes.Buffer
			if err := wb.Write(&buf); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to render workbook")
			}
			c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			c.Set(fiber.HeaderContentDisposition,
				fmt.Sprintf("attachment; filename=%q", export.BaseName(ex.Result, "climate_data")+".xlsx"))
			return c.Send(buf.Bytes())
		default:
			return fiber.NewError(fiber.StatusBadRequest, "format must be csv or xlsx")
		}
	})

	v1.Get("/presets", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"locations": climate.PresetLocations()})
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}
		if resolver == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "geocoding is not configured")
		}

		results, err := resolver.Search(c.Context(), query)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "geocoding service unavailable")
		}
		return c.JSON(fiber.Map{"query": query, "results": results})
	})
}

// extractRequest is the JSON body of POST /api/v1/extract. Coordinates are
// pointers so that a missing field fails validation instead of defaulting
// to zero.
type extractRequest struct {
	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude" validate:"required"`
	Longitude    *float64 `json:"longitude" validate:"required"`
	StartDate    string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	BufferKm     *float64 `json:"buffer_km" validate:"omitempty,gte=1,lte=100"`
	Variables    []string `json:"variables"`
}

func (r extractRequest) toRequest() (climate.Request, error) {
	start, err := time.ParseInLocation(climate.DateFormat, r.StartDate, time.UTC)
	if err != nil {
		return climate.Request{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.ParseInLocation(climate.DateFormat, r.EndDate, time.UTC)
	if err != nil {
		return climate.Request{}, fmt.Errorf("invalid end_date: %w", err)
	}

	buffer := 10.0
	if r.BufferKm != nil {
		buffer = *r.BufferKm
	}

	names := r.Variables
	if len(names) == 0 {
		names = []string{string(climate.CategoryTemperature)}
	}
	categories, err := climate.ParseCategories(names)
	if err != nil {
		return climate.Request{}, err
	}

	name := r.LocationName
	if name == "" {
		name = fmt.Sprintf("%.4f_%.4f", *r.Latitude, *r.Longitude)
	}

	return climate.Request{
		Location:   climate.Location{Name: name, Latitude: *r.Latitude, Longitude: *r.Longitude},
		Start:      start,
		End:        end,
		BufferKm:   buffer,
		Categories: categories,
	}, nil
}

// mapExtractionError translates service errors into HTTP status codes and
// records the outcome metric.
func mapExtractionError(err error) error {
	switch {
	case errors.Is(err, climate.ErrInvalidArgument):
		observability.ExtractionsTotal.WithLabelValues("invalid").Inc()
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, climate.ErrSourceUnavailable):
		observability.ExtractionsTotal.WithLabelValues("source_unavailable").Inc()
		return fiber.NewError(fiber.StatusServiceUnavailable, "climate data source unavailable")
	default:
		observability.ExtractionsTotal.WithLabelValues("error").Inc()
		return fiber.NewError(fiber.StatusInternalServerError, "extraction failed")
	}
}
