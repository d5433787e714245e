package handler

import (
	"log/slog"
	"net/http"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/service"
)

// PhotoHandler handles location photo uploads and access.
type PhotoHandler struct {
	photoService service.PhotoService
	logger       *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photoService service.PhotoService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		logger:       logger,
	}
}

// Upload handles POST /api/locations/{id}/photos. Expects a multipart form
// with the file in the "photo" field.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "PhotoHandler.Upload"

	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	locationID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Cap the multipart body just above the photo limit so an oversized
	// upload fails with a clear error instead of an aborted connection.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Upload is too large"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Missing photo field"))
		return
	}
	defer file.Close()

	photo, err := h.photoService.Upload(r.Context(), file, header, locationID, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]photoResponse{"photo": newPhotoResponse(photo)})
}

// Delete handles DELETE /api/photos/{id}.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	photoID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.photoService.Delete(r.Context(), photoID, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// URL handles GET /api/photos/{id}/url?thumbnail=1. Returns a short-lived
// URL rather than proxying image bytes through the API.
func (h *PhotoHandler) URL(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	photoID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	thumbnail := r.URL.Query().Get("thumbnail") == "1"
	url, err := h.photoService.URL(r.Context(), photoID, user.ID, thumbnail)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"url": url})
}
