package handlers

import (
	"net/http"

	"market-backend/internal/services"
	"market-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ApplicationHandler struct {
	appService *services.ApplicationService
	validator  *validator.Validate
}

func NewApplicationHandler(appService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		appService: appService,
		validator:  validator.New(),
	}
}

// GetApplications retrieves the application catalog, optionally filtered by
// status via a query parameter.
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		apps, err := h.appService.GetApplicationsByStatus(status)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve applications", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Applications retrieved successfully", apps)
		return
	}

	apps, err := h.appService.GetAllApplications()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve applications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Applications retrieved successfully", apps)
}

// GetPublicApplications lists the published catalog for unauthenticated
// storefront consumers.
func (h *ApplicationHandler) GetPublicApplications(c *gin.Context) {
	apps, err := h.appService.GetApplicationsByStatus("published")
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve applications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Applications retrieved successfully", apps)
}

// GetApplicationBySlug retrieves a published application by its public slug
func (h *ApplicationHandler) GetApplicationBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Application slug is required", nil)
		return
	}

	app, err := h.appService.GetApplicationBySlug(slug)
	if err != nil || app.Status != "published" {
		utils.ErrorResponse(c, http.StatusNotFound, "Application not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Application retrieved successfully", app)
}

// GetApplication retrieves a specific application by ID
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	appID := c.Param("id")
	if appID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Application ID is required", nil)
		return
	}

	app, err := h.appService.GetApplicationByID(appID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Application not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Application retrieved successfully", app)
}

// CreateApplication creates a new application in draft status
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req services.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	app, err := h.appService.CreateApplication(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create application", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Application created successfully", app)
}

// UpdateApplication updates an existing application
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	appID := c.Param("id")
	if appID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Application ID is required", nil)
		return
	}

	var req services.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	app, err := h.appService.UpdateApplication(appID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update application", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Application updated successfully", app)
}

// DeleteApplication deletes an application
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	appID := c.Param("id")
	if appID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Application ID is required", nil)
		return
	}

	if err := h.appService.DeleteApplication(appID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete application", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Application deleted successfully", nil)
}
