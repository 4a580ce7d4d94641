package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/service"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httputil"
)

// sniffLen is the number of bytes http.DetectContentType considers.
const sniffLen = 512

// ObjectReader returns a stored object's bytes and content type.
type ObjectReader interface {
	Object(key string) ([]byte, string, bool)
}

// PhotoHandler handles rating photo uploads and, for in-memory storage,
// serves the uploaded files.
type PhotoHandler struct {
	service PhotoService
	objects ObjectReader
	logger  *slog.Logger
}

// NewPhotoHandler creates a new photo HTTP handler. objects may be nil when
// photos are served by the object store itself.
func NewPhotoHandler(svc PhotoService, objects ObjectReader, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{service: svc, objects: objects, logger: logger}
}

// Upload handles POST /api/v1/ratings/photos (multipart/form-data, field "photo").
// @Summary Upload a rating photo
// @Description Stores the image and returns its URL for use in a rating's photos list.
// @Tags ratings
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "JPEG, PNG, WebP or GIF, at most 5 MB"
// @Success 201 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Router /api/v1/ratings/photos [post]
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxPhotoSize+(1<<20))
	if err := r.ParseMultipartForm(domain.MaxPhotoSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Status:  httputil.StatusError,
			Code:    apperrors.CodeValidation,
			Message: "failed to parse multipart form: " + err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Status:  httputil.StatusError,
			Code:    apperrors.CodeValidation,
			Message: "photo is required: " + err.Error(),
		})
		return
	}
	defer file.Close()

	// The declared part type is ignored; the bytes decide.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Upload(r.Context(), p, service.UploadPhotoInput{
		FileName:    header.Filename,
		ContentType: http.DetectContentType(head[:n]),
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, result)
}

// Serve handles GET /photos/*
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.objects == nil {
		http.NotFound(w, r)
		return
	}

	data, contentType, ok := h.objects.Object(chi.URLParam(r, "*"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
