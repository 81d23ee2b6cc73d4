package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/relay"
)

// maxUploadBytes caps multipart form memory buffering; larger parts spill
// to temp files.
const maxUploadBytes = 32 << 20

// UploadResponse represents the upload response.
type UploadResponse struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	Status   string `json:"status"`
}

// Upload handles the out-of-band file upload. Expects a multipart form
// with a "file" part, a "sender" field and an optional "recipient" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	sender := r.FormValue("sender")
	if sender == "" {
		h.Error(w, http.StatusBadRequest, "sender is required")
		return
	}
	recipient := r.FormValue("recipient")

	meta, err := h.bridge.Upload(r.Context(),
		header.Filename,
		header.Header.Get("Content-Type"),
		sender,
		recipient,
		file,
	)
	if err != nil {
		if errors.Is(err, relay.ErrInvalidInput) {
			h.Error(w, http.StatusBadRequest, "file name and sender are required")
			return
		}
		h.log.Error().Err(err).Msg("upload failed")
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.JSON(w, http.StatusCreated, UploadResponse{
		FileID:   meta.FileID,
		FileName: meta.FileName,
		FileSize: meta.FileSize,
		Status:   "uploaded",
	})
}

// Download streams a stored file back by id, with the original file name in
// the content disposition.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	meta, content, err := h.bridge.Download(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, relay.ErrFileNotFound) {
			h.Error(w, http.StatusNotFound, "file not found")
			return
		}
		h.log.Error().Err(err).Str("file_id", fileID).Msg("download failed")
		h.Error(w, http.StatusInternalServerError, "failed to load file")
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.FileSize, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.FileName))
	io.Copy(w, content)
}
