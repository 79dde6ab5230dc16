package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/status-stream/internal/headers"
)

func TestHeaders(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantHeaders map[string]string
	}{
		{
			name: "stream gets anti-buffering headers",
			path: "/v1/public_timeline",
			wantHeaders: map[string]string{
				"Cache-Control":     "no-cache",
				"X-Accel-Buffering": "no",
			},
		},
		{
			name:        "job page is not stored",
			path:        "/job/stop",
			wantHeaders: map[string]string{"Cache-Control": "no-store"},
		},
		{
			name:        "unmatched path untouched",
			path:        "/health",
			wantHeaders: map[string]string{"Cache-Control": ""},
		},
	}

	manager, err := headers.NewManager(headers.DefaultPolicies())
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true

				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			Headers(manager, logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			assert.True(t, called)

			for key, value := range tt.wantHeaders {
				assert.Equal(t, value, rec.Header().Get(key), key)
			}
		})
	}
}

func TestHeaders_HandlerCanOverride(t *testing.T) {
	manager, err := headers.NewManager([]headers.Policy{
		{Name: "all", PathPattern: `.*`, Headers: map[string]string{"Cache-Control": "max-age=60"}},
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	Headers(manager, logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
