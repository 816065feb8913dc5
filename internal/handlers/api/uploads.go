package api

import (
	"errors"
	"mime"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fliqk/internal/composer"
	"fliqk/internal/metrics"
	"fliqk/internal/models"
	"fliqk/internal/storage"
)

// UploadHandler stores media files for posts.
type UploadHandler struct {
	uploader storage.Uploader
	logger   *zap.Logger
}

// NewUploadHandler creates a new upload handler. A nil uploader disables uploads.
func NewUploadHandler(uploader storage.Uploader, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{uploader: uploader, logger: logger}
}

// Upload handles multipart POST /api/uploads with fields file and kind.
func (h *UploadHandler) Upload(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	if h.uploader == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "media uploads are not configured")
	}

	kind := c.FormValue("kind")
	fh, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "file is required")
	}

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	if err := composer.ValidateUpload(kind, contentType, fh.Size); err != nil {
		if errors.Is(err, composer.ErrTooLarge) {
			return jsonError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		}
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "failed to read file")
	}
	defer f.Close()

	url, err := h.uploader.Put(c.Context(), storage.ObjectKey(user.ID, fh.Filename), f, fh.Size, contentType)
	if err != nil {
		h.logger.Error("upload failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return jsonError(c, fiber.StatusBadGateway, "failed to store file")
	}
	metrics.RecordUpload(kind)

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, models.UploadResponse{URL: url, MediaType: contentType, Size: fh.Size})
}
