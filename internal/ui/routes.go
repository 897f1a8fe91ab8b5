package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the pages on r, which is expected to be mounted at
// /ui. askLimiter, when non-nil, wraps POST /ask.
func MountRoutes(r chi.Router, h *Handler, askLimiter func(http.Handler) http.Handler) {
	r.Use(newCSRFGuard(h.Production, h.logger).protect)

	r.Get("/", h.FormPage)
	r.Post("/submit", h.FormSubmit)
	r.Get("/ask", h.AskPage)
	r.Group(func(r chi.Router) {
		if askLimiter != nil {
			r.Use(askLimiter)
		}
		r.Post("/ask", h.AskSubmit)
	})
	r.Get("/records", h.Records)
}

// RedirectHome sends / to the scouting form.
func RedirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/ui/", http.StatusFound)
}
