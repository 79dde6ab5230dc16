package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"
)

// render executes name into a buffer first so a template error still
// produces a clean 500.
func render(
	w http.ResponseWriter,
	log logrus.FieldLogger,
	tmpl *template.Template,
	name string,
	status int,
	data any,
) {
	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.WithError(err).WithField("template", name).Error("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Debug("Failed to write page")
	}
}
