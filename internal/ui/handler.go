// Package ui serves the server-rendered scouting form, question page and
// submission log.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"

	"scouthub/internal/domain"
	"scouthub/internal/middleware"
	"scouthub/internal/schema"
	"scouthub/internal/service/analytics"
	"scouthub/internal/service/ingestion"
)

const maxFormBytes = 1 << 20

// Submitter accepts raw submissions. Implemented by ingestion.Service.
type Submitter interface {
	Submit(ctx context.Context, source string, raw map[string]any) (*ingestion.SubmitResult, error)
}

// Asker answers questions. Implemented by analytics.Service.
type Asker interface {
	Ask(ctx context.Context, question string) (*analytics.Answer, error)
}

// Handler renders the HTML pages.
type Handler struct {
	submit Submitter
	ask    Asker
	audit  domain.AuditLog
	desc   *schema.Descriptor
	logger *slog.Logger

	// Production marks the CSRF cookie Secure.
	Production bool
}

// NewHandler creates a UI handler.
func NewHandler(submit Submitter, ask Asker, audit domain.AuditLog, desc *schema.Descriptor, logger *slog.Logger) *Handler {
	return &Handler{submit: submit, ask: ask, audit: audit, desc: desc, logger: logger}
}

// FormPage handles GET /ui.
func (h *Handler) FormPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, scoutingFormPage(h.desc, nil, "", csrfField(r)))
}

// FormSubmit handles POST /ui/submit.
func (h *Handler) FormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "The form could not be read."))
		return
	}
	raw := make(map[string]any, len(r.PostForm))
	for k, vs := range r.PostForm {
		if k == csrfFieldName || len(vs) == 0 {
			continue
		}
		raw[k] = vs[len(vs)-1]
	}

	res, err := h.submit.Submit(r.Context(), domain.SourceForm, raw)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Info("form submission rejected", "error", err)
		renderHTML(w, statusFor(err), scoutingFormPage(h.desc, nil, err.Error(), csrfField(r)))
		return
	}
	renderHTML(w, http.StatusOK, scoutingFormPage(h.desc, res, "", csrfField(r)))
}

// AskPage handles GET /ui/ask.
func (h *Handler) AskPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, askPage("", nil, nil, csrfField(r)))
}

// AskSubmit handles POST /ui/ask.
func (h *Handler) AskSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "The form could not be read."))
		return
	}
	question := strings.TrimSpace(r.PostForm.Get("question"))
	ans, err := h.ask.Ask(r.Context(), question)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Warn("question failed", "question", question, "error", err)
		renderHTML(w, statusFor(err), askPage(question, nil, err, csrfField(r)))
		return
	}
	renderHTML(w, http.StatusOK, askPage(question, ans, nil, csrfField(r)))
}

// Records handles GET /ui/records.
func (h *Handler) Records(w http.ResponseWriter, _ *http.Request) {
	entries := h.audit.List()
	// newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	renderHTML(w, http.StatusOK, recordsPage(entries))
}

func statusFor(err error) int {
	var validation *domain.ValidationError
	var gate *domain.GateError
	var service *domain.ServiceError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &gate):
		return http.StatusUnprocessableEntity
	case errors.As(err, &service):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
