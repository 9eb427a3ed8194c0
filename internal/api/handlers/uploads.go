package handlers

import (
	"net/http"

	"market-backend/pkg/media"
	"market-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UploadHandler issues presigned URLs for catalog media uploads.
type UploadHandler struct {
	mediaService *media.Service
	validator    *validator.Validate
}

func NewUploadHandler(mediaService *media.Service) *UploadHandler {
	return &UploadHandler{
		mediaService: mediaService,
		validator:    validator.New(),
	}
}

type presignRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=icon screenshot preview"`
	ContentType string `json:"contentType" validate:"required"`
}

// PresignUpload returns a presigned PUT URL the dashboard uploads directly to
func (h *UploadHandler) PresignUpload(c *gin.Context) {
	if h.mediaService == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Media storage is not configured", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	upload, err := h.mediaService.PresignUpload(c.Request.Context(), req.Kind, req.ContentType)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to presign upload", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Upload URL issued successfully", upload)
}

// DeleteMedia removes a stored media object
func (h *UploadHandler) DeleteMedia(c *gin.Context) {
	if h.mediaService == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Media storage is not configured", nil)
		return
	}

	key := c.Query("key")
	if key == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Media key is required", nil)
		return
	}

	if err := h.mediaService.DeleteObject(c.Request.Context(), key); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete media", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Media deleted successfully", nil)
}
