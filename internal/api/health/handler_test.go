package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) Health(ctx context.Context) error { return f.err }

func TestHandleLiveness(t *testing.T) {
	h := New(logger.Get(), nil, nil, "tradesage", "test")

	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name       string
		postgres   error
		redis      error
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name:       "postgres down",
			postgres:   errors.ErrUnavailable,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
		{
			name:       "redis down",
			redis:      errors.ErrUnavailable,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(logger.Get(), &fakeChecker{err: tt.postgres}, &fakeChecker{err: tt.redis}, "tradesage", "test")

			rec := httptest.NewRecorder()
			h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Len(t, status.Checks, 2)
		})
	}
}

func TestHandleHealth_Degraded(t *testing.T) {
	h := New(logger.Get(), &fakeChecker{}, &fakeChecker{err: errors.ErrUnavailable}, "tradesage", "test")

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// One of two components down reports degraded but still serves 200.
	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["redis"].Status)
	assert.Equal(t, "healthy", status.Checks["postgres"].Status)
}

func TestHandleHealth_AllDown(t *testing.T) {
	down := &fakeChecker{err: errors.ErrUnavailable}
	h := New(logger.Get(), down, down, "tradesage", "test")

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
