// Package api exposes the image service over HTTP and CloudEvents.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/imagetaskflow/internal/services"
	"github.com/go-chi/chi/v5"
)

// FileField is the multipart field carrying the uploaded image.
const FileField = "File"

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 8 << 20

type handler struct {
	svc            *services.ImageService
	maxUploadBytes int64
}

// NewRouter returns the HTTP surface: POST / uploads, GET /?id= reports status.
func NewRouter(svc *services.ImageService, maxUploadBytes int64) http.Handler {
	h := &handler{svc: svc, maxUploadBytes: maxUploadBytes}

	r := chi.NewRouter()
	r.Post("/", h.upload)
	r.Get("/", h.status)
	return r
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("Upload exceeds size limit", "limit", tooLarge.Limit)
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Warn("Could not parse multipart form", "error", err)
		http.Error(w, "Bad Request: expected multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FileField)
	if err != nil {
		slog.Warn("Upload has no file part", "field", FileField, "error", err)
		http.Error(w, "Bad Request: missing file field "+FileField, http.StatusBadRequest)
		return
	}
	defer file.Close()

	taskID, err := h.svc.Upload(r.Context(), header.Filename, file)
	if err != nil {
		// The specific error is already logged inside the service.
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, taskID)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	value, err := h.svc.Status(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, value)
}

// writeError maps service errors onto status codes. Anything that is not a
// caller mistake is reported as a generic server error.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidUpload), errors.Is(err, services.ErrInvalidRequest):
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrTaskNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	default:
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
