package handlers

import (
	"net/http"
	"time"

	"market-backend/pkg/ratelimit"
	"market-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RateLimitAdminHandler exposes the admission limiter's admin operations:
// inspecting state, allowlisting, manual blocking, and full reset.
type RateLimitAdminHandler struct {
	limiter   *ratelimit.AdmissionLimiter
	validator *validator.Validate
}

func NewRateLimitAdminHandler(limiter *ratelimit.AdmissionLimiter) *RateLimitAdminHandler {
	return &RateLimitAdminHandler{
		limiter:   limiter,
		validator: validator.New(),
	}
}

// GetSnapshot returns counters describing the limiter's in-memory state
func (h *RateLimitAdminHandler) GetSnapshot(c *gin.Context) {
	snapshot := h.limiter.Snapshot()
	utils.SuccessResponse(c, http.StatusOK, "Rate limiter snapshot retrieved successfully", snapshot)
}

type allowlistRequest struct {
	Address string `json:"address" validate:"required"`
}

// AddToAllowlist exempts an address from all limiting and blocking
func (h *RateLimitAdminHandler) AddToAllowlist(c *gin.Context) {
	var req allowlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	h.limiter.Allowlist(req.Address)
	utils.SuccessResponse(c, http.StatusOK, "Address added to allowlist", nil)
}

// RemoveFromAllowlist removes an address from the allowlist
func (h *RateLimitAdminHandler) RemoveFromAllowlist(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Address is required", nil)
		return
	}

	h.limiter.Unallowlist(address)
	utils.SuccessResponse(c, http.StatusOK, "Address removed from allowlist", nil)
}

type blockRequest struct {
	Address string `json:"address" validate:"required"`
	// DurationMinutes of 0 falls back to the limiter's default block duration.
	DurationMinutes int    `json:"durationMinutes" validate:"min=0"`
	Reason          string `json:"reason,omitempty"`
	Message         string `json:"message,omitempty"`
}

// BlockAddress manually blocks an address
func (h *RateLimitAdminHandler) BlockAddress(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual"
	}

	h.limiter.Block(req.Address, time.Duration(req.DurationMinutes)*time.Minute, reason, req.Message)
	utils.SuccessResponse(c, http.StatusOK, "Address blocked successfully", nil)
}

// UnblockAddress removes a block on an address
func (h *RateLimitAdminHandler) UnblockAddress(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Address is required", nil)
		return
	}

	h.limiter.Unblock(address)
	utils.SuccessResponse(c, http.StatusOK, "Address unblocked successfully", nil)
}

// ResetLimiter clears all limiter state: windows, violations, and blocks
func (h *RateLimitAdminHandler) ResetLimiter(c *gin.Context) {
	h.limiter.Reset()
	utils.SuccessResponse(c, http.StatusOK, "Rate limiter state reset successfully", nil)
}
