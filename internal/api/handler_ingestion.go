package api

import (
	"fmt"
	"net/http"
	"time"

	"ordersense/internal/domain"
)

// maxUploadBytes bounds one multipart upload request.
const maxUploadBytes = 64 << 20 // 64 MiB

type uploadResponse struct {
	Success        bool     `json:"success"`
	FilesProcessed int      `json:"filesProcessed"`
	TotalRecords   int64    `json:"totalRecords"`
	Columns        []string `json:"columns"`
}

// Upload ingests one or more spreadsheet files from a multipart form.
// The optional dataSource form field selects the target source.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, domain.ErrValidation("invalid multipart form: %v", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.writeError(w, domain.ErrValidation("no files provided"))
		return
	}
	source := r.FormValue("dataSource")

	var total int64
	var columns []string
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.writeError(w, domain.ErrValidation("open upload %q: %v", fh.Filename, err))
			return
		}
		result, err := h.ingestion.Ingest(r.Context(), fh.Filename, source, f)
		_ = f.Close()
		if err != nil {
			h.writeError(w, err)
			return
		}
		total += result.RowCount
		if columns == nil {
			columns = result.Columns
		}
	}
	if columns == nil {
		columns = []string{}
	}

	h.writeJSON(w, http.StatusOK, uploadResponse{
		Success:        true,
		FilesProcessed: len(files),
		TotalRecords:   total,
		Columns:        columns,
	})
}

type statusFile struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	RowCount   int64     `json:"rowCount"`
	Columns    []string  `json:"columns"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type statusResponse struct {
	TotalRecords int64        `json:"totalRecords"`
	Files        []statusFile `json:"files"`
}

// Status reports the stored row count and the uploaded-file list.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	total, files, err := h.ingestion.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]statusFile, len(files))
	for i, f := range files {
		cols := f.Columns
		if cols == nil {
			cols = []string{}
		}
		out[i] = statusFile{
			ID:         f.ID,
			Filename:   f.Filename,
			RowCount:   f.RowCount,
			Columns:    cols,
			UploadedAt: f.UploadedAt,
		}
	}

	h.writeJSON(w, http.StatusOK, statusResponse{TotalRecords: total, Files: out})
}

// Export streams all orders of a source as an XLSX attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("dataSource")

	book, err := h.ingestion.ExportXLSX(r.Context(), source)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filename := fmt.Sprintf("export-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(book); err != nil {
		h.logger.Error("write export failed", "error", err)
	}
}

type clearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Clear deletes all stored orders and uploaded-file records.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.ingestion.Clear(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, clearResponse{Success: true, Message: "all data cleared"})
}
