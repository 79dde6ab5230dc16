package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Logging returns middleware that logs every request once it completes.
// For streams that is when the stream closes.
func Logging(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			entry := logger.WithFields(logrus.Fields{
				"method":        r.Method,
				"path":          r.URL.Path,
				"route":         route(r),
				"status":        sw.statusCode,
				"duration_ms":   time.Since(start).Milliseconds(),
				"bytes_written": sw.bytesWritten,
				"remote_addr":   r.RemoteAddr,
				"user_agent":    r.UserAgent(),
			})

			// Scrapes and probes would drown everything else.
			if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
				entry.Debug("HTTP request completed")

				return
			}

			entry.Info("HTTP request completed")
		})
	}
}
