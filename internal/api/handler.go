// Package api provides the HTTP handlers of the scouting hub.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"scouthub/internal/decode"
	"scouthub/internal/domain"
	"scouthub/internal/middleware"
	"scouthub/internal/schema"
	"scouthub/internal/service/analytics"
	"scouthub/internal/service/ingestion"
)

const (
	maxBodyBytes  = 1 << 20
	maxImageBytes = 10 << 20
)

// Submitter accepts raw submissions. Implemented by ingestion.Service.
type Submitter interface {
	Submit(ctx context.Context, source string, raw map[string]any) (*ingestion.SubmitResult, error)
}

// Asker answers questions. Implemented by analytics.Service.
type Asker interface {
	Ask(ctx context.Context, question string) (*analytics.Answer, error)
}

// Exporter uploads a CSV snapshot. Implemented by export.Exporter.
type Exporter interface {
	Export(ctx context.Context) (string, error)
	Bucket() string
}

// Handler serves the scouting API.
type Handler struct {
	submit   Submitter
	ask      Asker
	decoder  *decode.Decoder
	audit    domain.AuditLog
	desc     *schema.Descriptor
	exporter Exporter
	logger   *slog.Logger
}

// NewHandler creates a Handler. exporter may be nil when object storage is not
// configured.
func NewHandler(
	submit Submitter,
	ask Asker,
	decoder *decode.Decoder,
	audit domain.AuditLog,
	desc *schema.Descriptor,
	exporter Exporter,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		submit:   submit,
		ask:      ask,
		decoder:  decoder,
		audit:    audit,
		desc:     desc,
		exporter: exporter,
		logger:   logger,
	}
}

// Submit handles POST /v1/submit with a JSON object body.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}
	h.store(w, r, domain.SourceJSON, raw)
}

// SubmitForm handles POST /v1/submit/form from the manual scouting form.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, domain.ErrValidation("invalid form body: %v", err))
		return
	}
	raw := make(map[string]any, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			raw[k] = vs[len(vs)-1]
		}
	}
	h.store(w, r, domain.SourceForm, raw)
}

type scanRequest struct {
	Payload string `json:"payload"`
}

// Scan handles POST /v1/scan with a textual scanned payload.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	raw, err := h.decoder.DecodeText(req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	h.store(w, r, domain.SourceScan, raw)
}

// ScanImage handles POST /v1/scan/image with a multipart "image" field.
func (h *Handler) ScanImage(w http.ResponseWriter, r *http.Request) {
	if !h.decoder.QREnabled() {
		writeError(w, &domain.UnavailableError{Capability: decode.CapabilityQRImage})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, domain.ErrValidation("multipart field \"image\" is required: %v", err))
		return
	}
	defer file.Close()

	raw, err := h.decoder.DecodeImage(file)
	if err != nil {
		writeError(w, err)
		return
	}
	h.store(w, r, domain.SourceScan, raw)
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, source string, raw map[string]any) {
	res, err := h.submit.Submit(r.Context(), source, raw)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Info("submission rejected", "source", source, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /v1/ask.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ans, err := h.ask.Ask(r.Context(), req.Question)
	if err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			writeError(w, err)
			return
		}
		middleware.Logger(r.Context(), h.logger).Warn("question failed", "question", req.Question, "error", err)
		writeJSON(w, httpStatusFromDomainError(err), askError(err))
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

type recordsResponse struct {
	Records []domain.AuditEntry `json:"records"`
	Count   int                 `json:"count"`
}

// Records handles GET /v1/records. ?limit=N returns the N most recent entries.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	entries := h.audit.List()
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, domain.ErrValidation("limit must be a non-negative integer"))
			return
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: entries, Count: len(entries)})
}

type schemaResponse struct {
	*schema.Descriptor
	Prompt string `json:"prompt"`
}

// Schema handles GET /v1/schema.
func (h *Handler) Schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schemaResponse{Descriptor: h.desc, Prompt: h.desc.Describe()})
}

type exportResponse struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Export handles POST /v1/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, &domain.UnavailableError{Capability: "export"})
		return
	}
	key, err := h.exporter.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{Bucket: h.exporter.Bucket(), Key: key})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes a size-limited JSON body, keeping numbers as json.Number.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return domain.ErrValidation("read body: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.ErrValidation("empty payload")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return domain.ErrValidation("body must be a JSON object: %v", err)
	}
	return nil
}
