package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterate/incident-etl/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(srv.URL, "incident-etl-test/1.0", 5*time.Second, time.Millisecond, logger)
}

func TestForwardGeocode(t *testing.T) {
	var gotPath, gotUA, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`[{"lat": "40.4237", "lon": "-3.6763"}]`))
	})

	coords, found, err := c.ForwardGeocode(context.Background(), "12 Calle Goya, Madrid, Spain")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "incident-etl-test/1.0", gotUA)
	assert.Equal(t, "12 Calle Goya, Madrid, Spain", gotQuery)
	assert.Equal(t, domain.Coordinates{Lat: 40.4237, Lon: -3.6763}, coords)
}

func TestForwardGeocodeNoResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, found, err := c.ForwardGeocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestForwardGeocodeMalformedCoordinates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat": "not-a-number", "lon": "-3.6763"}]`))
	})

	_, _, err := c.ForwardGeocode(context.Background(), "Calle Goya")
	assert.Error(t, err)
}

func TestForwardGeocodeServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bandwidth limit exceeded", http.StatusServiceUnavailable)
	})

	_, _, err := c.ForwardGeocode(context.Background(), "Calle Goya")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestReverseGeocode(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"address": {"road": "calle de alcalá", "house_number": "20"}}`))
	})

	addr, found, err := c.ReverseGeocode(context.Background(), 40.42, -3.68)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "/reverse", gotPath)
	assert.Equal(t, []string{"40.42"}, gotQuery["lat"])
	assert.Equal(t, []string{"-3.68"}, gotQuery["lon"])
	assert.Equal(t, "Calle de Alcalá", addr.Street, "street is normalized before returning")
	assert.Equal(t, "20", addr.Number)
}

func TestReverseGeocodeRoadFieldPreference(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{"road wins", `{"address": {"road": "calle mayor", "pedestrian": "plaza mayor"}}`, "Calle Mayor"},
		{"pedestrian fallback", `{"address": {"pedestrian": "plaza mayor"}}`, "Plaza Mayor"},
		{"residential fallback", `{"address": {"residential": "colonia del pilar"}}`, "Colonia del Pilar"},
		{"cycleway last", `{"address": {"cycleway": "anillo verde"}}`, "Anillo Verde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.payload))
			})

			addr, found, err := c.ReverseGeocode(context.Background(), 40.42, -3.68)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.expected, addr.Street)
		})
	}
}

func TestReverseGeocodeNoRoad(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": {"house_number": "20"}}`))
	})

	_, found, err := c.ReverseGeocode(context.Background(), 40.42, -3.68)
	require.NoError(t, err)
	assert.False(t, found, "a house number without a street is not an answer")
}

func TestThrottleSpacesRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	c.limiter.SetLimit(10) // 100ms spacing, fast enough for a test

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, err := c.ForwardGeocode(context.Background(), "Calle Goya")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond,
		"three requests need two full intervals")
}

func TestThrottleHonorsContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	c.limiter.SetLimit(0.001)

	_, _, err := c.ForwardGeocode(context.Background(), "warms up the limiter")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = c.ForwardGeocode(ctx, "Calle Goya")
	assert.Error(t, err)
}
