// Package api exposes the HTTP surface: query, upload, status, export,
// and clear.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ordersense/internal/service/ingestion"
	"ordersense/internal/service/insight"
)

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	insight   *insight.Service
	ingestion *ingestion.Service
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(insightSvc *insight.Service, ingestionSvc *ingestion.Service, logger *slog.Logger) *Handler {
	return &Handler{insight: insightSvc, ingestion: ingestionSvc, logger: logger}
}

// Routes mounts all endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/query", h.Query)
	r.Post("/upload", h.Upload)
	r.Get("/status", h.Status)
	r.Get("/export", h.Export)
	r.Delete("/data", h.Clear)
}

// writeJSON writes v as a JSON response with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response failed", "error", err)
	}
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps a domain error to its HTTP status and writes the
// error object.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}
