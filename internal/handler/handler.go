// Package handler provides the HTTP request handlers for taskdata.
//
// Handlers decode and validate the request surface, hand the decoded
// body to the ingest service, and format its result or error as a JSON
// response. No merge logic lives here.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/eeglab/taskdata/internal/errors"
	"github.com/eeglab/taskdata/internal/ingest"
	"github.com/eeglab/taskdata/internal/logging"
)

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	svc         *ingest.Service
	maxBodySize int64
	log         *slog.Logger
}

// New creates a handler backed by the ingest service.
func New(svc *ingest.Service, maxBodySize int64) *Handler {
	return &Handler{
		svc:         svc,
		maxBodySize: maxBodySize,
		log:         logging.Component("handler"),
	}
}

// Routes mounts the handler's routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/submit_data", h.SubmitData)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
}

// errorResponse is the JSON body for every non-200 response.
type errorResponse struct {
	Error string `json:"error"`
}

// SubmitData handles POST /submit_data.
func (h *Handler) SubmitData(w http.ResponseWriter, r *http.Request) {
	body, err := h.decodeBody(w, r)
	if err != nil {
		h.log.Warn("no usable request body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apierrors.ErrNoBody.Error()})
		return
	}

	resp, err := h.svc.Submit(r.Context(), body)
	if err != nil {
		writeJSON(w, apierrors.HTTPStatus(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeBody reads and decodes the JSON request body. A missing,
// empty, or syntactically invalid body all count as "no data
// provided"; a JSON null decodes to a nil map and is caught by the
// same validation state downstream.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty body")
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

// writeJSON outputs a JSON response body. The payload is encoded
// before any byte of the response is written so an encoding failure
// can still produce a clean 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
