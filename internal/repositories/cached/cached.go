// Package cached puts a read-through cache in front of ride request and trip
// lookups by id. Every write through the decorator drops the cached entry.
package cached

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/utils"
	"hotelops/pkg/cache"
	"hotelops/pkg/logger"
)

type rideRequestRepository struct {
	interfaces.RideRequestRepository
	fills *fillGuard
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewRideRequestRepository(next interfaces.RideRequestRepository, c cache.Cache, ttl time.Duration, log *logger.Logger) interfaces.RideRequestRepository {
	return &rideRequestRepository{RideRequestRepository: next, fills: newFillGuard(), cache: c, ttl: ttl, log: log}
}

func rideRequestKey(id int64) string {
	return utils.CacheRideRequestPrefix + strconv.FormatInt(id, 10)
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id int64) (*models.RideRequest, error) {
	key := rideRequestKey(id)
	var request models.RideRequest
	if readCache(ctx, r.cache, r.log, key, &request) {
		return &request, nil
	}

	fill := r.fills.begin(key)
	found, err := r.RideRequestRepository.GetByID(ctx, id)
	if err != nil {
		r.fills.end(fill, nil)
		return nil, err
	}
	r.fills.end(fill, func() { writeCache(ctx, r.cache, r.log, key, found, r.ttl) })
	return found, nil
}

func (r *rideRequestRepository) UpdateLocations(ctx context.Context, id int64, pickup, dropoff string) error {
	defer r.fills.invalidate(ctx, r.cache, r.log, rideRequestKey(id))
	return r.RideRequestRepository.UpdateLocations(ctx, id, pickup, dropoff)
}

func (r *rideRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RideRequestStatus) error {
	defer r.fills.invalidate(ctx, r.cache, r.log, rideRequestKey(id))
	return r.RideRequestRepository.UpdateStatus(ctx, id, from, to)
}

func (r *rideRequestRepository) Delete(ctx context.Context, id int64) error {
	defer r.fills.invalidate(ctx, r.cache, r.log, rideRequestKey(id))
	return r.RideRequestRepository.Delete(ctx, id)
}

type tripRepository struct {
	interfaces.TripRepository
	fills *fillGuard
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewTripRepository(next interfaces.TripRepository, c cache.Cache, ttl time.Duration, log *logger.Logger) interfaces.TripRepository {
	return &tripRepository{TripRepository: next, fills: newFillGuard(), cache: c, ttl: ttl, log: log}
}

func tripKey(id int64) string {
	return utils.CacheTripPrefix + strconv.FormatInt(id, 10)
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	key := tripKey(id)
	var trip models.Trip
	if readCache(ctx, r.cache, r.log, key, &trip) {
		return &trip, nil
	}

	fill := r.fills.begin(key)
	found, err := r.TripRepository.GetByID(ctx, id)
	if err != nil {
		r.fills.end(fill, nil)
		return nil, err
	}
	r.fills.end(fill, func() { writeCache(ctx, r.cache, r.log, key, found, r.ttl) })
	return found, nil
}

func (r *tripRepository) UpdateSchedule(ctx context.Context, id int64, pickupAt, dropoffAt time.Time) error {
	defer r.fills.invalidate(ctx, r.cache, r.log, tripKey(id))
	return r.TripRepository.UpdateSchedule(ctx, id, pickupAt, dropoffAt)
}

func (r *tripRepository) UpdateStatus(ctx context.Context, id int64, from, to models.TripStatus) error {
	defer r.fills.invalidate(ctx, r.cache, r.log, tripKey(id))
	return r.TripRepository.UpdateStatus(ctx, id, from, to)
}

// fillGuard tracks cache fills that are waiting on the store. An
// invalidation that lands while a fill is in flight marks it dirty, and a
// dirty fill is never written back, so a row read before a write cannot
// outlive that write in the cache. The guard is per process; entries
// written by other instances are bounded by the TTL.
type fillGuard struct {
	mu      sync.Mutex
	pending map[string]*fillState
}

type fillState struct {
	key     string
	readers int
	dirty   bool
}

func newFillGuard() *fillGuard {
	return &fillGuard{pending: make(map[string]*fillState)}
}

func (g *fillGuard) begin(key string) *fillState {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.pending[key]
	if !ok {
		state = &fillState{key: key}
		g.pending[key] = state
	}
	state.readers++
	return state
}

// end runs write unless the key was invalidated since begin. write runs under
// the guard lock so an invalidation cannot slip between the check and the set.
func (g *fillGuard) end(state *fillState, write func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if write != nil && !state.dirty {
		write()
	}
	state.readers--
	if state.readers == 0 && g.pending[state.key] == state {
		delete(g.pending, state.key)
	}
}

func (g *fillGuard) invalidate(ctx context.Context, c cache.Cache, log *logger.Logger, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.pending[key]; ok {
		state.dirty = true
		// Later fills start clean.
		delete(g.pending, key)
	}
	invalidateCache(ctx, c, log, key)
}

// Cache failures only cost a trip to the store, so they are logged and
// swallowed.
func readCache(ctx context.Context, c cache.Cache, log *logger.Logger, key string, dest interface{}) bool {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	return false
}

func writeCache(ctx context.Context, c cache.Cache, log *logger.Logger, key string, value interface{}, ttl time.Duration) {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func invalidateCache(ctx context.Context, c cache.Cache, log *logger.Logger, key string) {
	if err := c.Delete(ctx, key); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache invalidation failed")
	}
}
