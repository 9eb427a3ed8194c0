package handlers

import (
	"net/http"

	"market-backend/internal/services"
	"market-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type PlatformHandler struct {
	platformService *services.PlatformService
	validator       *validator.Validate
}

func NewPlatformHandler(platformService *services.PlatformService) *PlatformHandler {
	return &PlatformHandler{
		platformService: platformService,
		validator:       validator.New(),
	}
}

// GetPlatforms retrieves all payment platforms
func (h *PlatformHandler) GetPlatforms(c *gin.Context) {
	platforms, err := h.platformService.GetAllPlatforms()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve platforms", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Platforms retrieved successfully", platforms)
}

// GetPlatform retrieves a specific payment platform by ID
func (h *PlatformHandler) GetPlatform(c *gin.Context) {
	platformID := c.Param("id")
	if platformID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Platform ID is required", nil)
		return
	}

	platform, err := h.platformService.GetPlatformByID(platformID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Platform not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Platform retrieved successfully", platform)
}

// CreatePlatform registers a new payment platform
func (h *PlatformHandler) CreatePlatform(c *gin.Context) {
	var req services.CreatePlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	platform, err := h.platformService.CreatePlatform(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create platform", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Platform created successfully", platform)
}

// UpdatePlatform updates an existing payment platform
func (h *PlatformHandler) UpdatePlatform(c *gin.Context) {
	platformID := c.Param("id")
	if platformID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Platform ID is required", nil)
		return
	}

	var req services.UpdatePlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	platform, err := h.platformService.UpdatePlatform(platformID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update platform", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Platform updated successfully", platform)
}

// DeletePlatform removes a payment platform
func (h *PlatformHandler) DeletePlatform(c *gin.Context) {
	platformID := c.Param("id")
	if platformID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Platform ID is required", nil)
		return
	}

	if err := h.platformService.DeletePlatform(platformID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete platform", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Platform deleted successfully", nil)
}
