package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		handlerStatus int
		level         logrus.Level
		expected      []string
		notExpected   []string
	}{
		{
			name:          "stream request logged at info",
			path:          "/v1/public_timeline",
			handlerStatus: http.StatusOK,
			level:         logrus.InfoLevel,
			expected:      []string{"GET", "/v1/public_timeline", "status=200", "bytes_written=5", "route=\"GET /v1/public_timeline\""},
		},
		{
			name:          "bad job action",
			path:          "/job/bogus",
			handlerStatus: http.StatusBadRequest,
			level:         logrus.InfoLevel,
			expected:      []string{"/job/bogus", "status=400"},
		},
		{
			name:          "health probe hidden at info",
			path:          "/health",
			handlerStatus: http.StatusOK,
			level:         logrus.InfoLevel,
			notExpected:   []string{"HTTP request completed"},
		},
		{
			name:          "health probe shown at debug",
			path:          "/health",
			handlerStatus: http.StatusOK,
			level:         logrus.DebugLevel,
			expected:      []string{"HTTP request completed", "/health"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := logrus.New()
			logger.SetOutput(&buf)
			logger.SetLevel(tt.level)
			logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})

			mux := http.NewServeMux()
			handler := func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				_, _ = w.Write([]byte("hello"))
			}

			mux.HandleFunc("GET /v1/public_timeline", handler)
			mux.HandleFunc("GET /job/{action}", handler)
			mux.HandleFunc("GET /health", handler)

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			rec := httptest.NewRecorder()

			Logging(logger)(mux).ServeHTTP(rec, req)

			require.Equal(t, tt.handlerStatus, rec.Code)

			out := buf.String()

			for _, s := range tt.expected {
				assert.Contains(t, out, s)
			}

			for _, s := range tt.notExpected {
				assert.NotContains(t, out, s)
			}
		})
	}
}
