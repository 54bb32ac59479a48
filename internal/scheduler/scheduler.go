package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/climhealth/climate-extraction/internal/climate"
	"github.com/climhealth/climate-extraction/internal/store"
)

// publicationLagDays accounts for ERA5-Land's delay behind real time; the
// trailing extraction window ends this many days before today.
const publicationLagDays = 5

// Scheduler periodically extracts a trailing window of climate data for the
// configured study locations and stores the results.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	extractor  *climate.Extractor
	store      *store.MemoryStore
	logger     *zap.Logger
	locations  []climate.Location
	categories []climate.Category
	bufferKm   float64
	windowDays int
	interval   time.Duration
}

// New creates a Scheduler.
func New(
	extractor *climate.Extractor,
	st *store.MemoryStore,
	logger *zap.Logger,
	locations []climate.Location,
	categories []climate.Category,
	bufferKm float64,
	windowDays int,
	interval time.Duration,
) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		extractor:  extractor,
		store:      st,
		logger:     logger,
		locations:  locations,
		categories: categories,
		bufferKm:   bufferKm,
		windowDays: windowDays,
		interval:   interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 24 * 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// runOnce extracts every configured location strictly sequentially; the
// external source enforces rate limits, so there is no parallel dispatch.
func (s *Scheduler) runOnce() {
	s.logger.Info("scheduler: running climate extraction job",
		zap.Int("locations", len(s.locations)))

	end := time.Now().UTC().AddDate(0, 0, -publicationLagDays)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -s.windowDays)

	for _, loc := range s.locations {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

		result, err := s.extractor.Extract(ctx, climate.Request{
			Location:   loc,
			Start:      start,
			End:        end,
			BufferKm:   s.bufferKm,
			Categories: s.categories,
		})
		cancel()
		if err != nil {
			s.logger.Warn("scheduler: extraction failed",
				zap.String("location", loc.Key()), zap.Error(err))
			continue
		}

		s.store.Save(store.StoredExtraction{
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
			Result:    result,
		})
		s.logger.Info("scheduler: extraction stored",
			zap.String("location", loc.Key()),
			zap.Int("records", len(result.Daily)))
	}

	s.logger.Info("scheduler: completed climate extraction job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
