package geocache

import (
	"context"
	"log/slog"

	"github.com/enterate/incident-etl/internal/domain"
	"github.com/enterate/incident-etl/internal/observability"
)

// CachedGeocoder decorates a Geocoder with the persistent Store. Hits are
// served locally and never touch the provider (or its rate limit); misses
// go to the inner geocoder and successful answers are written back. Lookups
// without an answer are not cached, keeping entries immutable and
// meaningful.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   *Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates the cache decorator.
func NewCachedGeocoder(inner domain.Geocoder, store *Store, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, store: store, metrics: metrics, logger: logger}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.Coordinates, bool, error) {
	if coords, ok, err := c.store.GetForward(ctx, query); err == nil && ok {
		c.metrics.GeocodeCache.WithLabelValues("forward", "hit").Inc()
		return coords, true, nil
	} else if err != nil {
		c.logger.Warn("forward cache lookup failed", "error", err)
	}
	c.metrics.GeocodeCache.WithLabelValues("forward", "miss").Inc()

	coords, found, err := c.inner.ForwardGeocode(ctx, query)
	c.observe("forward", found, err)
	if err != nil || !found {
		return domain.Coordinates{}, false, err
	}

	if err := c.store.PutForward(ctx, query, coords); err != nil {
		// A write failure costs one future provider call, nothing more.
		c.logger.Warn("forward cache write failed", "error", err)
	}
	return coords, true, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, bool, error) {
	if addr, ok, err := c.store.GetReverse(ctx, lat, lon); err == nil && ok {
		c.metrics.GeocodeCache.WithLabelValues("reverse", "hit").Inc()
		return addr, true, nil
	} else if err != nil {
		c.logger.Warn("reverse cache lookup failed", "error", err)
	}
	c.metrics.GeocodeCache.WithLabelValues("reverse", "miss").Inc()

	addr, found, err := c.inner.ReverseGeocode(ctx, lat, lon)
	c.observe("reverse", found, err)
	if err != nil || !found {
		return domain.Address{}, false, err
	}

	if err := c.store.PutReverse(ctx, lat, lon, addr); err != nil {
		c.logger.Warn("reverse cache write failed", "error", err)
	}
	return addr, true, nil
}

func (c *CachedGeocoder) observe(method string, found bool, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case !found:
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc()
}
