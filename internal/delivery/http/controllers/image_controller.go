package controllers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

const imageFormField = "file"

// ImageResponse is the public representation of an uploaded image.
type ImageResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func toImageResponse(img *domain.Image) ImageResponse {
	return ImageResponse{ID: img.ID, EventID: img.EventID, URL: img.URL, CreatedAt: img.CreatedAt}
}

type ImageController struct {
	Logger         *slog.Logger
	Service        domain.ImageService
	MaxUploadBytes int64
}

func NewImageController(logger *slog.Logger, svc domain.ImageService, maxUploadBytes int64) *ImageController {
	return &ImageController{
		Logger:         logger,
		Service:        svc,
		MaxUploadBytes: maxUploadBytes,
	}
}

// UploadImage godoc
// @Summary Upload an event image
// @Description Multipart upload in field "file". Accepts .jpg, .png and .webp.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param file formData file true "Image file"
// @Success 201 {object} helpers.APIResponse "data contains the image"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, validation_error"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 413 {object} helpers.APIResponse "error.code: bad_request"
// @Router /events/{eventID}/images [post]
func (c *ImageController) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeBadRequest,
				"file exceeds "+strconv.FormatInt(c.MaxUploadBytes, 10)+" bytes")
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	img, err := c.Service.UploadImage(r.Context(), r.PathValue("eventID"), header.Filename, file)
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, toImageResponse(img))
}

// GetImage godoc
// @Summary Download an event image
// @Tags images
// @Produce image/png,image/jpeg,image/webp
// @Param eventID path string true "Event ID (UUID)"
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/images/{filename} [get]
func (c *ImageController) GetImage(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("filename")
	data, err := c.Service.GetImage(r.Context(), r.PathValue("eventID"), fileName)
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	contentType := mime.TypeByExtension(path.Ext(fileName))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteImage godoc
// @Summary Delete an event image
// @Tags images
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param filename path string true "Stored file name"
// @Success 204 "No Content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/images/{filename} [delete]
func (c *ImageController) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteImage(r.Context(), r.PathValue("eventID"), r.PathValue("filename")); err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
