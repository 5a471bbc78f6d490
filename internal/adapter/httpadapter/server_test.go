package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReadiness struct {
	err error
}

func (s stubReadiness) CheckReadiness(context.Context) error {
	return s.err
}

func newTestServer(ready ReadinessChecker) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", ready, logger)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(stubReadiness{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := newTestServer(stubReadiness{})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		s := newTestServer(stubReadiness{err: errors.New("no partition written yet")})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not ready", body["status"])
		assert.Contains(t, body["error"], "no partition")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(stubReadiness{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(stubReadiness{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
