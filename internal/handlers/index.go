package handlers

import (
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/version"
	"github.com/ethpandaops/status-stream/web"
)

// Endpoint is one entry on the index page.
type Endpoint struct {
	Path        string
	Description string
}

// DefaultEndpoints lists the public routes.
var DefaultEndpoints = []Endpoint{
	{Path: "/v1/public_timeline", Description: "chunked stream of new public statuses"},
	{Path: "/public_timeline", Description: "same stream, unversioned path"},
	{Path: "/job/", Description: "background collector status and start/stop"},
	{Path: "/health", Description: "health check"},
	{Path: "/metrics", Description: "Prometheus metrics"},
}

type indexPage struct {
	Endpoints []Endpoint
	Version   string
}

// Index serves the informational page for every path no other route
// claims, so clients never get a 404.
func Index(log logrus.FieldLogger, tmpl *template.Template, endpoints []Endpoint) http.HandlerFunc {
	log = log.WithField("component", "index")

	return func(w http.ResponseWriter, _ *http.Request) {
		render(w, log, tmpl, web.IndexTemplate, http.StatusOK, indexPage{
			Endpoints: endpoints,
			Version:   version.Full(),
		})
	}
}
