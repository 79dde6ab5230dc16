package handlers

import (
	"context"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/collector"
	"github.com/ethpandaops/status-stream/web"
)

// Compile-time interface compliance check.
var _ JobController = (*collector.Collector)(nil)

// JobController is the collector as seen by the job page.
type JobController interface {
	Status(ctx context.Context) collector.Status
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
}

type jobPage struct {
	Enabled       bool
	UnknownAction string
	Status        collector.Status
}

// Job serves /job/{action}: "start" resumes the collector, "stop" pauses
// it and an empty action only shows its state. Any other action is
// reported on the page with a 400. A nil controller means the collector is
// disabled.
func Job(log logrus.FieldLogger, tmpl *template.Template, controller JobController) http.HandlerFunc {
	log = log.WithField("component", "job")

	return func(w http.ResponseWriter, r *http.Request) {
		action := r.PathValue("action")
		page := jobPage{Enabled: controller != nil}
		status := http.StatusOK

		var err error

		switch {
		case action == "":
		case controller == nil && (action == "start" || action == "stop"):
			status = http.StatusConflict
		case action == "start":
			err = controller.Resume(r.Context())
		case action == "stop":
			err = controller.Pause(r.Context())
		default:
			page.UnknownAction = action
			status = http.StatusBadRequest
		}

		if err != nil {
			log.WithError(err).WithField("action", action).Error("Failed to change collector state")

			status = http.StatusServiceUnavailable
		}

		if controller != nil {
			page.Status = controller.Status(r.Context())
		}

		render(w, log, tmpl, web.JobTemplate, status, page)
	}
}
