package geocache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterate/incident-etl/internal/domain"
	"github.com/enterate/incident-etl/internal/observability"
)

type countingGeocoder struct {
	forwardCalls int
	reverseCalls int

	coords   domain.Coordinates
	coordsOK bool
	addr     domain.Address
	addrOK   bool
	err      error
}

func (c *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.Coordinates, bool, error) {
	c.forwardCalls++
	return c.coords, c.coordsOK, c.err
}

func (c *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.Address, bool, error) {
	c.reverseCalls++
	return c.addr, c.addrOK, c.err
}

func newCachedForTest(t *testing.T, inner domain.Geocoder) *CachedGeocoder {
	t.Helper()
	store := openTestStore(t, filepath.Join(t.TempDir(), "geocode.sqlite"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCachedGeocoder(inner, store, observability.NewMetricsForTesting(), logger)
}

func TestCachedForwardHitSkipsProvider(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{coords: domain.Coordinates{Lat: 40.42, Lon: -3.68}, coordsOK: true}
	c := newCachedForTest(t, inner)

	first, found, err := c.ForwardGeocode(ctx, "12 Calle Goya, Madrid, Spain")
	require.NoError(t, err)
	require.True(t, found)

	second, found, err := c.ForwardGeocode(ctx, "12 Calle Goya, Madrid, Spain")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.forwardCalls, "repeat lookups are served from the cache")
}

func TestCachedReverseHitSkipsProvider(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{addr: domain.Address{Street: "Calle de Alcala", Number: "20"}, addrOK: true}
	c := newCachedForTest(t, inner)

	first, found, err := c.ReverseGeocode(ctx, 40.42, -3.68)
	require.NoError(t, err)
	require.True(t, found)

	second, found, err := c.ReverseGeocode(ctx, 40.42, -3.68)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.reverseCalls)
}

func TestCachedDoesNotCacheNotFound(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{}
	c := newCachedForTest(t, inner)

	_, found, err := c.ForwardGeocode(ctx, "nowhere")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = c.ForwardGeocode(ctx, "nowhere")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.forwardCalls, "empty answers go back to the provider")
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{err: errors.New("provider down")}
	c := newCachedForTest(t, inner)

	_, _, err := c.ForwardGeocode(ctx, "Calle Goya")
	assert.Error(t, err)

	_, _, err = c.ForwardGeocode(ctx, "Calle Goya")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.forwardCalls)
}

func TestCachedDistinctQueries(t *testing.T) {
	ctx := context.Background()
	inner := &countingGeocoder{coords: domain.Coordinates{Lat: 40.42, Lon: -3.68}, coordsOK: true}
	c := newCachedForTest(t, inner)

	_, _, err := c.ForwardGeocode(ctx, "Calle Goya, Madrid, Spain")
	require.NoError(t, err)
	_, _, err = c.ForwardGeocode(ctx, "Calle Mayor, Madrid, Spain")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.forwardCalls)
}
