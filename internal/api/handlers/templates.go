package handlers

import (
	"net/http"

	"market-backend/internal/services"
	"market-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type TemplateHandler struct {
	templateService *services.TemplateService
	validator       *validator.Validate
}

func NewTemplateHandler(templateService *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		validator:       validator.New(),
	}
}

// GetTemplates retrieves all templates
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	templates, err := h.templateService.GetAllTemplates()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve templates", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Templates retrieved successfully", templates)
}

// GetPublicTemplates lists published templates for unauthenticated
// storefront consumers.
func (h *TemplateHandler) GetPublicTemplates(c *gin.Context) {
	templates, err := h.templateService.GetPublishedTemplates()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve templates", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Templates retrieved successfully", templates)
}

// GetTemplateBySlug retrieves a published template by its public slug
func (h *TemplateHandler) GetTemplateBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Template slug is required", nil)
		return
	}

	tmpl, err := h.templateService.GetTemplateBySlug(slug)
	if err != nil || tmpl.Status != "published" {
		utils.ErrorResponse(c, http.StatusNotFound, "Template not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Template retrieved successfully", tmpl)
}

// GetTemplate retrieves a specific template by ID
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	templateID := c.Param("id")
	if templateID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Template ID is required", nil)
		return
	}

	tmpl, err := h.templateService.GetTemplateByID(templateID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Template not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Template retrieved successfully", tmpl)
}

// CreateTemplate creates a new template in draft status
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req services.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	tmpl, err := h.templateService.CreateTemplate(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create template", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Template created successfully", tmpl)
}

// UpdateTemplate updates an existing template
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	templateID := c.Param("id")
	if templateID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Template ID is required", nil)
		return
	}

	var req services.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	tmpl, err := h.templateService.UpdateTemplate(templateID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update template", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Template updated successfully", tmpl)
}

// DeleteTemplate deletes a template
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	templateID := c.Param("id")
	if templateID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Template ID is required", nil)
		return
	}

	if err := h.templateService.DeleteTemplate(templateID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete template", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Template deleted successfully", nil)
}
