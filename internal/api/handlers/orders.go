package handlers

import (
	"net/http"

	"market-backend/internal/services"
	"market-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	orderService *services.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// GetOrders retrieves orders, optionally filtered by status or buyer email
// via query parameters.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		orders, err := h.orderService.GetOrdersByStatus(status)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve orders", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
		return
	}

	if buyer := c.Query("buyer"); buyer != "" {
		orders, err := h.orderService.GetOrdersByBuyer(buyer)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve orders", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
		return
	}

	orders, err := h.orderService.GetAllOrders()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve orders", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder retrieves a specific order by ID
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Order not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

// GetOrderByReference retrieves an order by its public reference
func (h *OrderHandler) GetOrderByReference(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order reference is required", nil)
		return
	}

	order, err := h.orderService.GetOrderByReference(reference)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Order not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

// CreateOrder creates a new pending order priced from the catalog
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create order", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Order created successfully", order)
}

// MarkOrderPaid transitions a pending order to paid
func (h *OrderHandler) MarkOrderPaid(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	order, err := h.orderService.MarkPaid(orderID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to mark order paid", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order marked paid successfully", order)
}

// RefundOrder transitions a paid order to refunded
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	order, err := h.orderService.RefundOrder(orderID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to refund order", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order refunded successfully", order)
}

// CancelOrder transitions a pending order to cancelled
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	order, err := h.orderService.CancelOrder(orderID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to cancel order", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order cancelled successfully", order)
}
