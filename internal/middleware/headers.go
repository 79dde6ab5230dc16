package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/headers"
)

// Headers returns middleware that sets the headers of the first policy
// matching the request path.
func Headers(manager *headers.Manager, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matched := manager.Match(r.URL.Path); len(matched) > 0 {
				for key, value := range matched {
					w.Header().Set(key, value)
				}

				log.WithField("path", r.URL.Path).Debug("Applied header policy")
			}

			next.ServeHTTP(w, r)
		})
	}
}
