package store

import (
	"errors"
	"sync"
	"time"

	"github.com/climhealth/climate-extraction/internal/climate"
)

var (
	// ErrNotFound is returned when no extraction is stored under a given ID
	// or location.
	ErrNotFound = errors.New("no extraction result found")
)

// StoredExtraction is a completed extraction retained for download.
type StoredExtraction struct {
	ID        string
	CreatedAt time.Time
	Result    climate.Result
}

// MemoryStore is a concurrency-safe in-memory store of completed extractions,
// keyed by job ID, with a secondary index of the latest result per location.
type MemoryStore struct {
	mu sync.RWMutex

	byID  map[string]StoredExtraction
	order []string // insertion order, oldest first

	// key: location key, value: most recent job ID
	latestByLocation map[string]string

	// retention configuration
	maxEntries int           // max number of stored extractions
	maxAge     time.Duration // optional max age
}

// NewMemoryStore creates a MemoryStore with optional limits. maxEntries <= 0
// and maxAge <= 0 are treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		byID:             make(map[string]StoredExtraction),
		latestByLocation: make(map[string]string),
		maxEntries:       maxEntries,
		maxAge:           maxAge,
	}
}

// Save stores a completed extraction and enforces retention.
func (s *MemoryStore) Save(ex StoredExtraction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[ex.ID]; !exists {
		s.order = append(s.order, ex.ID)
	}
	s.byID[ex.ID] = ex
	s.latestByLocation[ex.Result.Location.Key()] = ex.ID

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, id := range s.order[:over] {
			s.evict(id)
		}
		s.order = s.order[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.order); i++ {
			entry, ok := s.byID[s.order[i]]
			if !ok || entry.CreatedAt.After(cutoff) || entry.CreatedAt.Equal(cutoff) {
				break
			}
			s.evict(s.order[i])
		}
		if i > 0 {
			s.order = s.order[i:]
		}
	}
}

// evict removes an entry and any location index pointing at it. Caller holds
// the lock.
func (s *MemoryStore) evict(id string) {
	ex, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	key := ex.Result.Location.Key()
	if s.latestByLocation[key] == id {
		delete(s.latestByLocation, key)
	}
}

// Get returns the stored extraction for a job ID.
func (s *MemoryStore) Get(id string) (StoredExtraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ex, ok := s.byID[id]
	if !ok {
		return StoredExtraction{}, ErrNotFound
	}
	return ex, nil
}

// LatestForLocation returns the most recent extraction for a location.
func (s *MemoryStore) LatestForLocation(loc climate.Location) (StoredExtraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.latestByLocation[loc.Key()]
	if !ok {
		return StoredExtraction{}, ErrNotFound
	}
	ex, ok := s.byID[id]
	if !ok {
		return StoredExtraction{}, ErrNotFound
	}
	return ex, nil
}
